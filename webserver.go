package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// Request limits for serve mode
const (
	DefaultMaxRequestTrials = 100000
	maxSensitivityCells     = 500
	maxSearchIterations     = 200
)

// WebServer serves simulations over HTTP
type WebServer struct {
	config *Config
	addr   string

	// MaxTrials caps n_simulations and the analysis trial counts of a request
	MaxTrials int
}

// NewWebServer creates a new web server instance. config answers GET /api/config
// and is used for requests that arrive without a body.
func NewWebServer(config *Config, addr string) *WebServer {
	return &WebServer{
		config:    config,
		addr:      addr,
		MaxTrials: DefaultMaxRequestTrials,
	}
}

// APISimulationResponse represents the simulation results
type APISimulationResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	RunID   string      `json:"run_id,omitempty"`
	Report  *JSONReport `json:"report,omitempty"`
}

// Start starts the web server and blocks until it stops
func (ws *WebServer) Start() error {
	server := &fasthttp.Server{
		Handler: ws.Handler(),
		Name:    "fire-simulator",
	}

	log.Printf("Starting web server on %s", ws.addr)
	return server.ListenAndServe(ws.addr)
}

// Handler routes requests to the API handlers
func (ws *WebServer) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/health":
			ws.handleHealth(ctx)
		case "/api/config":
			ws.handleGetConfig(ctx)
		case "/api/indices":
			ws.handleGetIndices(ctx)
		case "/api/simulate":
			ws.handleSimulate(ctx)
		case "/api/export":
			ws.handleExport(ctx)
		default:
			ctx.Error("not found", fasthttp.StatusNotFound)
		}
	}
}

func (ws *WebServer) handleHealth(ctx *fasthttp.RequestCtx) {
	sendJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (ws *WebServer) handleGetConfig(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		sendJSONError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	sendJSON(ctx, fasthttp.StatusOK, ws.config)
}

func (ws *WebServer) handleGetIndices(ctx *fasthttp.RequestCtx) {
	sendJSON(ctx, fasthttp.StatusOK, GetIndicesByRegion())
}

func (ws *WebServer) handleSimulate(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		sendJSONError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	report, status, err := ws.runReport(ctx)
	if err != nil {
		sendJSONError(ctx, status, err.Error())
		return
	}

	includeRaw := string(ctx.QueryArgs().Peek("raw")) != "false"
	doc := NewJSONReport(report, includeRaw)
	sendJSON(ctx, fasthttp.StatusOK, APISimulationResponse{
		Success: true,
		RunID:   report.RunID,
		Report:  &doc,
	})
}

func (ws *WebServer) handleExport(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		sendJSONError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	format := strings.ToLower(string(ctx.QueryArgs().Peek("format")))
	if format == "" {
		format = FormatXLSX
	}
	if _, err := ReportFormat("report." + format); err != nil {
		sendJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	report, status, err := ws.runReport(ctx)
	if err != nil {
		sendJSONError(ctx, status, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := WriteReportTo(&buf, format, report); err != nil {
		log.Printf("Export %s failed for run %s: %v", format, report.RunID, err)
		sendJSONError(ctx, fasthttp.StatusInternalServerError, "Failed to generate report: "+err.Error())
		return
	}

	ctx.SetContentType(ContentType(format))
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fire_simulation_%s.%s"`, report.RunID, format))
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(buf.Bytes())
}

// runReport parses the request config (or uses the server's), runs the simulation
// and the optional analyses, and returns the HTTP status to use on failure
func (ws *WebServer) runReport(ctx *fasthttp.RequestCtx) (*Report, int, error) {
	config := ws.config
	if body := ctx.PostBody(); len(bytes.TrimSpace(body)) > 0 {
		parsed, err := ParseConfig(body, "json")
		if err != nil {
			return nil, fasthttp.StatusBadRequest, err
		}
		config = parsed
	}
	if config == nil {
		return nil, fasthttp.StatusBadRequest, ConfigurationError{Field: "config", Message: "request body is empty and no default config is loaded"}
	}

	args := ctx.QueryArgs()
	if args.Has("seed") {
		seed, err := args.GetUint("seed")
		if err != nil || seed == 0 {
			return nil, fasthttp.StatusBadRequest, ConfigurationError{Field: "seed", Message: fmt.Sprintf("must be a positive integer (got %q)", args.Peek("seed"))}
		}
		config = config.Clone()
		config.Seed = uint64(seed)
	}

	runSensitivity := args.GetBool("sensitivity")
	runSustainable := args.GetBool("sustainable")
	if err := ws.checkLimits(config, runSensitivity, runSustainable); err != nil {
		return nil, fasthttp.StatusBadRequest, err
	}

	result, err := RunSeededSimulation(config)
	if err != nil {
		return nil, errorStatus(err), err
	}

	var sensitivity *SensitivityAnalysis
	if runSensitivity {
		if sensitivity, err = RunSensitivityAnalysis(config); err != nil {
			return nil, errorStatus(err), err
		}
	}

	var sustainable []SustainableResult
	if runSustainable {
		if sustainable, err = RunSustainableAnalysis(config); err != nil {
			return nil, errorStatus(err), err
		}
	}

	report := NewReport(config, result, sensitivity, sustainable)
	log.Printf("Run %s: %d portfolios x %d trials, seed %d", report.RunID, len(result.Runs), config.NSimulations, result.Seed)
	return report, fasthttp.StatusOK, nil
}

// checkLimits rejects requests whose trial counts or analysis sizes exceed what
// one request may run
func (ws *WebServer) checkLimits(config *Config, sensitivity, sustainable bool) error {
	counts := []struct {
		field string
		value int
	}{
		{"n_simulations", config.NSimulations},
		{"sensitivity.trials", config.Sensitivity.Trials},
		{"sustainable.trials", config.Sustainable.Trials},
	}
	for _, c := range counts {
		if ws.MaxTrials > 0 && c.value > ws.MaxTrials {
			return ConfigurationError{Field: c.field, Message: fmt.Sprintf("at most %d trials per request (got %d)", ws.MaxTrials, c.value)}
		}
	}

	if sensitivity {
		if cells := SensitivityCells(config); cells > maxSensitivityCells {
			return ConfigurationError{Field: "sensitivity", Message: fmt.Sprintf("grid has %d cells, at most %d per request", cells, maxSensitivityCells)}
		}
	}
	if sustainable && config.Sustainable.MaxIterations > maxSearchIterations {
		return ConfigurationError{Field: "sustainable.max_iterations", Message: fmt.Sprintf("at most %d per request (got %d)", maxSearchIterations, config.Sustainable.MaxIterations)}
	}
	return nil
}

// errorStatus maps configuration problems to 400 and everything else to 500
func errorStatus(err error) int {
	var cfgErr ConfigurationError
	if errors.As(err, &cfgErr) || errors.Is(err, ErrEmptyInput) {
		return fasthttp.StatusBadRequest
	}
	return fasthttp.StatusInternalServerError
}

func sendJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to encode response: %v", err)
		ctx.Error("failed to encode response", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
}

// sendJSONError sends a JSON error response
func sendJSONError(ctx *fasthttp.RequestCtx, status int, message string) {
	sendJSON(ctx, status, APISimulationResponse{
		Success: false,
		Error:   message,
	})
}
