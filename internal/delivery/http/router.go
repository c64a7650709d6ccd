package http

import (
	"net/http"

	"hospital-frontdesk/internal/delivery/http/handler"
	"hospital-frontdesk/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router                *mux.Router
	visitHandler          *handler.VisitHandler
	doctorHandler         *handler.DoctorHandler
	invoiceHandler        *handler.InvoiceHandler
	procedureOrderHandler *handler.ProcedureOrderHandler
	settingsHandler       *handler.SettingsHandler
	eventStreamHandler    *handler.EventStreamHandler
	metricsHandler        http.Handler
	authMiddleware        *middleware.AuthMiddleware
	corsMiddleware        *middleware.CORSMiddleware
	requestLogger         *middleware.RequestLogger
}

func NewRouter(
	visitHandler *handler.VisitHandler,
	doctorHandler *handler.DoctorHandler,
	invoiceHandler *handler.InvoiceHandler,
	procedureOrderHandler *handler.ProcedureOrderHandler,
	settingsHandler *handler.SettingsHandler,
	eventStreamHandler *handler.EventStreamHandler,
	metricsHandler http.Handler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	requestLogger *middleware.RequestLogger,
) *Router {
	return &Router{
		router:                mux.NewRouter(),
		visitHandler:          visitHandler,
		doctorHandler:         doctorHandler,
		invoiceHandler:        invoiceHandler,
		procedureOrderHandler: procedureOrderHandler,
		settingsHandler:       settingsHandler,
		eventStreamHandler:    eventStreamHandler,
		metricsHandler:        metricsHandler,
		authMiddleware:        authMiddleware,
		corsMiddleware:        corsMiddleware,
		requestLogger:         requestLogger,
	}
}

func (r *Router) Setup() *mux.Router {
	// Preflight requests match before any method-restricted route; CORS
	// headers are added by the router middleware below
	r.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, req *http.Request) {})

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Everything else requires an access token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	// Front desk: visit intake and billing
	frontDesk := protected.NewRoute().Subrouter()
	frontDesk.Use(middleware.RequireFrontDesk)
	frontDesk.HandleFunc("/visits", r.visitHandler.CreateVisit).Methods(http.MethodPost)
	frontDesk.HandleFunc("/visits/{id}/cancel", r.visitHandler.CancelVisit).Methods(http.MethodPatch)
	frontDesk.HandleFunc("/visits/{id}/invoice", r.visitHandler.GetVisitInvoice).Methods(http.MethodGet)
	frontDesk.HandleFunc("/invoices", r.invoiceHandler.CreateInvoice).Methods(http.MethodPost)
	frontDesk.HandleFunc("/invoices/{id}", r.invoiceHandler.GetInvoice).Methods(http.MethodGet)
	frontDesk.HandleFunc("/invoices/{id}/items", r.invoiceHandler.AddItem).Methods(http.MethodPost)
	frontDesk.HandleFunc("/invoices/{id}/procedure-charges", r.invoiceHandler.AddProcedureCharge).Methods(http.MethodPost)
	frontDesk.HandleFunc("/invoices/{id}/payments", r.invoiceHandler.RecordPayment).Methods(http.MethodPost)
	frontDesk.HandleFunc("/invoices/{id}/adjustments", r.invoiceHandler.AdjustInvoice).Methods(http.MethodPatch)
	frontDesk.HandleFunc("/invoices/{id}/issue", r.invoiceHandler.IssueInvoice).Methods(http.MethodPost)
	frontDesk.HandleFunc("/invoices/{id}/void", r.invoiceHandler.VoidInvoice).Methods(http.MethodPost)
	frontDesk.HandleFunc("/invoices/{id}/receipt", r.invoiceHandler.GetReceipt).Methods(http.MethodGet)

	// Queue dispatch
	queue := protected.NewRoute().Subrouter()
	queue.Use(middleware.RequireQueueOperator)
	queue.HandleFunc("/visits/today", r.visitHandler.ListToday).Methods(http.MethodGet)
	queue.HandleFunc("/visits/{id}", r.visitHandler.GetVisit).Methods(http.MethodGet)
	queue.HandleFunc("/visits/{id}/call", r.visitHandler.CallNext).Methods(http.MethodPatch)
	queue.HandleFunc("/visits/{id}/complete", r.visitHandler.CompleteVisit).Methods(http.MethodPatch)
	queue.HandleFunc("/doctors/me/queue", r.doctorHandler.GetMyQueue).Methods(http.MethodGet)
	queue.HandleFunc("/doctors/{id}/emergency", r.doctorHandler.SetEmergency).Methods(http.MethodPost)

	// Clinical: procedure orders and worklists
	clinical := protected.PathPrefix("/procedure-orders").Subrouter()
	clinical.Use(middleware.RequireClinical)
	clinical.HandleFunc("", r.procedureOrderHandler.CreateOrder).Methods(http.MethodPost)
	clinical.HandleFunc("/requested", r.procedureOrderHandler.ListRequested).Methods(http.MethodGet)
	clinical.HandleFunc("/ongoing", r.procedureOrderHandler.ListOngoing).Methods(http.MethodGet)
	clinical.HandleFunc("/visit/{visitId}", r.procedureOrderHandler.ListForVisit).Methods(http.MethodGet)
	clinical.HandleFunc("/{id}", r.procedureOrderHandler.GetOrder).Methods(http.MethodGet)
	clinical.HandleFunc("/{id}/start", r.procedureOrderHandler.StartProcedure).Methods(http.MethodPatch)
	clinical.HandleFunc("/{id}/complete", r.procedureOrderHandler.CompleteProcedure).Methods(http.MethodPatch)
	clinical.HandleFunc("/{id}/status", r.procedureOrderHandler.UpdateStatus).Methods(http.MethodPatch)

	// Read-only boards, also open to display screens
	boards := protected.NewRoute().Subrouter()
	boards.Use(middleware.RequireStaff)
	boards.HandleFunc("/doctors", r.doctorHandler.ListDoctors).Methods(http.MethodGet)
	boards.HandleFunc("/doctors/{id}/queue", r.doctorHandler.GetQueue).Methods(http.MethodGet)
	boards.HandleFunc("/emergencies", r.doctorHandler.ListEmergencies).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := protected.PathPrefix("/settings").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("", r.settingsHandler.GetSettings).Methods(http.MethodGet)
	admin.HandleFunc("", r.settingsHandler.UpdateSettings).Methods(http.MethodPut)

	// Event stream
	stream := r.router.PathPrefix("/ws").Subrouter()
	stream.Use(r.authMiddleware.Authenticate)
	stream.Use(middleware.RequireStaff)
	stream.HandleFunc("", r.eventStreamHandler.Connect).Methods(http.MethodGet)

	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// Add CORS and request logging middleware
	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.requestLogger.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
