package tax

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID tags each request with the caller's X-Request-ID or a new
// UUID and echoes it back.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// cors adds the local-dev CORS headers and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Routes lists every endpoint for the startup banner.
var Routes = []string{
	"GET  /api/tax/rates/{province}",
	"POST /api/tax/corporate",
	"POST /api/tax/personal",
	"POST /api/tax/capital-gains",
	"POST /api/tax/dividend",
	"POST /api/tax/dividend/compare",
	"POST /api/tax/dividend/advanced",
	"POST /api/tax/dividend/rank",
	"POST /api/tax/payroll",
	"POST /api/tax/sales-tax",
	"POST /api/tax/deadlines",
	"POST /api/tax/installments",
	"POST /api/tax/installments/interest",
	"POST /api/tax/penalties",
	"POST /api/tax/bn/validate",
	"POST /api/tax/bn/bulk",
	"POST /api/tax/profile",
	"POST /api/tax/close-gate",
	"POST /api/tax/sod",
	"POST /api/tax/governance/dividend",
	"POST /api/tax/governance/borrowing",
	"POST /api/tax/evidence",
	"GET  /api/tax/evidence/{entity}",
	"GET  /api/tax/evidence/{entity}/{year}",
	"POST /api/tax/entities",
	"POST /api/tax/entities/{entity}/filings",
	"GET  /api/tax/close-gate/{entity}/{year}",
	"POST /api/tax/report",
	"GET  /metrics",
	"GET  /healthz",
}

// NewRouter mounts the tax endpoints under /api/tax. extra, if non-nil, is
// called to mount further routes (such as /api/config) on the same router.
func NewRouter(h *Handler, extra func(chi.Router)) http.Handler {
	if h.Metrics == nil {
		h.Metrics = NewMetrics()
	}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(cors)
	r.Use(h.Metrics.Middleware)

	r.Get("/metrics", h.Metrics.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/tax", func(r chi.Router) {
		r.Get("/rates/{province}", h.HandleRates)
		r.Post("/corporate", h.HandleCorporate)
		r.Post("/personal", h.HandlePersonal)
		r.Post("/capital-gains", h.HandleCapitalGains)
		r.Post("/dividend", h.HandleDividend)
		r.Post("/dividend/compare", h.HandleDividendCompare)
		r.Post("/dividend/advanced", h.HandleDividendAdvanced)
		r.Post("/dividend/rank", h.HandleDividendRank)
		r.Post("/payroll", h.HandlePayroll)
		r.Post("/sales-tax", h.HandleSalesTax)
		r.Post("/deadlines", h.HandleDeadlines)
		r.Post("/installments", h.HandleInstallments)
		r.Post("/installments/interest", h.HandleInstallmentInterest)
		r.Post("/penalties", h.HandlePenalties)
		r.Post("/bn/validate", h.HandleValidate)
		r.Post("/bn/bulk", h.HandleBulkValidate)
		r.Post("/profile", h.HandleProfile)
		r.Post("/close-gate", h.HandleCloseGate)
		r.Post("/sod", h.HandleSoD)
		r.Post("/governance/dividend", h.HandleDividendGovernance)
		r.Post("/governance/borrowing", h.HandleBorrowingGovernance)
		r.Post("/evidence", h.HandleEvidence)
		r.Get("/evidence/{entity}", h.HandleListEvidence)
		r.Get("/evidence/{entity}/{year}", h.HandleGetEvidence)
		r.Post("/entities", h.HandleSaveEntity)
		r.Post("/entities/{entity}/filings", h.HandleSaveFiling)
		r.Get("/close-gate/{entity}/{year}", h.HandleStoredCloseGate)
		r.Post("/report", h.HandleReport)
	})

	if extra != nil {
		extra(r)
	}
	return r
}
