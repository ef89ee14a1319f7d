package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/model"
)

const (
	MsgFillAllFields   = "Fill in all fields!"
	MsgRequestTooLarge = "The request is too large"
	MsgBadForm         = "The form could not be read"
)

// process is the form boundary: every outcome, success or failure, is a 200
// with a single "result" string.
func (s *Server) process(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)

	// ParseMultipartForm hides url-encoded read errors behind ErrNotMultipart,
	// so the plain form is parsed first.
	err := c.Request.ParseForm()
	if err == nil {
		err = c.Request.ParseMultipartForm(s.cfg.MaxBodyBytes)
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"result": MsgRequestTooLarge})
			return
		}
		s.logger.WarnContext(ctx, "form rejected", "request_id", c.GetString(ctxKeyRequestID), "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"result": MsgBadForm})
		return
	}

	form := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		if key == "" || value == "" {
			c.JSON(http.StatusOK, gin.H{"result": MsgFillAllFields})
			return
		}
		form[key] = value
	}

	c.JSON(http.StatusOK, gin.H{"result": s.optimizer.Run(ctx, form)})
}

type itemPayload struct {
	Length   decimal.Decimal `json:"length"`
	Quantity int             `json:"quantity"`
}

type planPayload struct {
	Stock    []itemPayload `json:"stock"    binding:"required,min=1"`
	Demand   []itemPayload `json:"demand"   binding:"required,min=1"`
	Strategy string        `json:"strategy" binding:"omitempty,oneof=ip greedy divisor"`
}

func toRawItems(items []itemPayload) []model.RawItem {
	raw := make([]model.RawItem, len(items))
	for i, it := range items {
		raw[i] = model.RawItem{Length: it.Length, Quantity: it.Quantity}
	}
	return raw
}

// plan is the structured surface: engine failures map to their HTTP status.
func (s *Server) plan(c *gin.Context) {
	var payload planPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": engine.KindInput.String()})
		return
	}

	strategy := model.Strategy(payload.Strategy)
	if strategy == "" {
		strategy = s.optimizer.Settings.Strategy
	}

	plan, err := s.solve(c, model.RawInput{
		Stock:  toRawItems(payload.Stock),
		Demand: toRawItems(payload.Demand),
	}, strategy)
	if err != nil {
		kind := engine.KindOf(err)
		c.JSON(kind.HTTPStatus(), gin.H{"error": engine.Message(err), "kind": kind.String()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":    plan,
		"offcuts": model.DetectOffcuts(plan, s.optimizer.Settings.MinOffcut),
		"text":    export.FormatPlan(plan),
	})
}

func (s *Server) solve(c *gin.Context, raw model.RawInput, strategy model.Strategy) (model.Plan, error) {
	req, err := engine.Normalize(raw)
	if err != nil {
		return model.Plan{}, err
	}
	return s.optimizer.SolveRequest(c.Request.Context(), req, strategy)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
