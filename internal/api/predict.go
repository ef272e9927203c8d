package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/history"
	"github.com/Skufu/GlucoRisk/internal/input"
	"github.com/Skufu/GlucoRisk/internal/report"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

// errNoFile is returned when a multipart request lacks the "file" part.
var errNoFile = errors.New(`multipart field "file" is required`)

// predictRequest is the JSON form of manual input. Omitted fields take the
// form defaults; every value is clamped to the form bounds.
type predictRequest struct {
	Pregnancies              *float64 `json:"pregnancies"`
	Glucose                  *float64 `json:"glucose"`
	BloodPressure            *float64 `json:"bloodPressure"`
	SkinThickness            *float64 `json:"skinThickness"`
	Insulin                  *float64 `json:"insulin"`
	BMI                      *float64 `json:"bmi"`
	DiabetesPedigreeFunction *float64 `json:"diabetesPedigreeFunction"`
	Age                      *float64 `json:"age"`
}

func (r predictRequest) manual() input.Manual {
	m := input.Manual{}
	set := func(name string, v *float64) {
		if v != nil {
			m[name] = *v
		}
	}
	set(features.Pregnancies, r.Pregnancies)
	set(features.Glucose, r.Glucose)
	set(features.BloodPressure, r.BloodPressure)
	set(features.SkinThickness, r.SkinThickness)
	set(features.Insulin, r.Insulin)
	set(features.BMI, r.BMI)
	set(features.DiabetesPedigreeFunction, r.DiabetesPedigreeFunction)
	set(features.Age, r.Age)
	return m
}

type verdictResponse struct {
	Label       scoring.Label `json:"label"`
	Probability float64       `json:"probability"`
	Band        string        `json:"band"`
	Result      string        `json:"result"`
	Summary     string        `json:"summary"`
	Advice      string        `json:"advice"`
}

type predictResponse struct {
	Verdict  verdictResponse `json:"verdict"`
	Features features.Vector `json:"features"`
}

func newPredictResponse(v features.Vector, verdict scoring.Verdict) predictResponse {
	return predictResponse{
		Verdict: verdictResponse{
			Label:       verdict.Label,
			Probability: verdict.Probability,
			Band:        verdict.Band.String(),
			Result:      verdict.Result(),
			Summary:     verdict.Summary(),
			Advice:      verdict.Advice(),
		},
		Features: v,
	}
}

// evaluate resolves src, scores it and appends the record to the history.
// Nothing is written unless scoring succeeds.
func (s *Server) evaluate(ctx context.Context, src input.Source) (features.Vector, scoring.Verdict, error) {
	v, err := src.Resolve(ctx)
	if err != nil {
		return features.Vector{}, scoring.Verdict{}, err
	}
	verdict, err := s.scorer.Score(ctx, v)
	if err != nil {
		return v, scoring.Verdict{}, err
	}
	s.record(ctx, v, verdict)
	return v, verdict, nil
}

// record appends to the history. A failed append is logged and counted but
// does not take back a verdict the caller already has.
func (s *Server) record(ctx context.Context, v features.Vector, verdict scoring.Verdict) {
	if s.history == nil {
		return
	}
	err := s.history.Append(ctx, history.NewRecord(v, verdict, s.now()))
	if s.metrics != nil {
		s.metrics.ObserveHistoryAppend(err)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "history append failed", "err", err)
	}
}

func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}
	v, verdict, err := s.evaluate(c.Request.Context(), req.manual())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPredictResponse(v, verdict))
}

func (s *Server) handlePredictFile(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, data, err := readUpload(c)
		if err != nil {
			s.writeBindError(c, err)
			return
		}
		src, err := input.ForKind(kind, bytes.NewReader(data), int64(len(data)), s.extractor)
		if err != nil {
			s.writeError(c, err)
			return
		}
		v, verdict, err := s.evaluate(c.Request.Context(), src)
		if err != nil {
			s.writeError(c, fmt.Errorf("%s: %w", name, err))
			return
		}
		c.JSON(http.StatusOK, newPredictResponse(v, verdict))
	}
}

// handleReport scores the posted vector and returns the verdict as an
// attachment. It accepts JSON or the form encoding the interactive page posts.
// Values are taken exactly as sent, not clamped, so the report matches the
// card of an upload that was scored outside the form bounds. Reports are
// renderings of a verdict, so nothing is appended to the history.
func (s *Server) handleReport(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatPDF)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_format", "message": err.Error()})
		return
	}

	var src input.Source
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req predictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.writeBindError(c, err)
			return
		}
		src = input.Exact(req.manual())
	} else {
		if err := c.Request.ParseForm(); err != nil {
			s.writeBindError(c, err)
			return
		}
		src = input.Exact(input.ParseManual(c.Request.PostForm.Get))
	}

	ctx := c.Request.Context()
	v, err := src.Resolve(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	verdict, err := s.scorer.Score(ctx, v)
	if err != nil {
		s.writeError(c, err)
		return
	}

	doc := report.New(v, verdict, s.now())
	var buf bytes.Buffer
	if err := report.Write(&buf, format, doc); err != nil {
		s.writeError(c, fmt.Errorf("render %s report: %w", format, err))
		return
	}
	c.Header("X-Report-ID", doc.ID.String())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, format.Filename(doc)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.lister == nil {
		c.JSON(http.StatusOK, gin.H{"records": []history.Record{}})
		return
	}
	records, err := s.lister.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// readUpload returns the name and contents of the multipart "file" part.
func readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, errNoFile
	}
	if err != nil {
		return "", nil, err
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}
