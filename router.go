package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"quoteform/controllers"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Application have started!")
}

func registerRoutes(router *mux.Router, fc *controllers.FormController) {
	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	// Form
	router.HandleFunc("/", fc.Index).Methods(http.MethodGet)
	router.HandleFunc("/state", fc.GetState).Methods(http.MethodGet)
	router.HandleFunc("/ticker", fc.SetTicker).Methods(http.MethodPost)
	router.HandleFunc("/delta", fc.SetDelta).Methods(http.MethodPost)

	// Quotes
	router.HandleFunc("/quote", fc.FetchQuote).Methods(http.MethodPost)
}
