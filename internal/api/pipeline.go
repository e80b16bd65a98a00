package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/x161880/antigravity2api/internal/account"
	"github.com/x161880/antigravity2api/internal/constant"
	"github.com/x161880/antigravity2api/internal/convert"
	"github.com/x161880/antigravity2api/internal/stream"
	"github.com/x161880/antigravity2api/internal/upstream"
)

// chatRequest is what every dialect's route handler resolves before the
// shared pipeline takes over (spec §9: "the handler is dialect-agnostic
// above that interface").
type chatRequest struct {
	dialect      constant.Dialect
	cliPool      bool
	rawModel     string
	rawJSON      []byte
	streamWanted bool
}

// isImageModel gates the fake-non-stream mode off for models that produce
// inline image data, which the fake-non-stream collector does not buffer
// meaningfully (spec §4.4).
func isImageModel(model string) bool {
	return strings.Contains(model, "image")
}

func genToolCallID() string { return "call_" + uuid.NewString() }

// runPipeline implements the data flow from spec §2: validate, pick
// account, convert, call upstream (direct / fake-stream / fake-non-stream),
// translate the result back through the dialect.
func (d *Deps) runPipeline(c *gin.Context, req chatRequest) {
	features := convert.ParseModelName(req.rawModel)
	mgr := d.managerFor(req.cliPool)

	tok := mgr.GetToken(c.Request.Context())
	if tok == nil {
		writeError(c, req.dialect, http.StatusServiceUnavailable, "NoAvailableAccount", "no available account in pool")
		return
	}

	host, userAgent := d.hostFor(req.cliPool)
	target := upstream.ChatTarget{Host: host, UserAgent: userAgent, Account: tok}

	env, err := convert.ToUpstream(req.dialect, req.rawJSON, features.Model, tok.ProjectID, uuid.NewString(), d.Tools, d.SignatureCache)
	if err != nil {
		writeError(c, req.dialect, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	switch {
	case features.FakeStream && req.streamWanted && req.cliPool:
		d.runFakeStream(c, req, features, mgr, target, env)
	case !req.streamWanted && d.Config.Stream.FakeNonStream && !isImageModel(features.Model):
		d.runFakeNonStream(c, req, features, mgr, target, env)
	case req.streamWanted:
		d.runStream(c, req, features, mgr, target, env)
	default:
		d.runNonStream(c, req, features, mgr, target, env)
	}
}

func (d *Deps) runNonStream(c *gin.Context, req chatRequest, features convert.ModelFeatures, mgr *account.Manager, target upstream.ChatTarget, env convert.UpstreamRequest) {
	body, err := upstream.GenerateContent(c.Request.Context(), d.HTTPClient, target, env, d.Config.RetryTimes)
	if err != nil {
		d.handleUpstreamError(c, req.dialect, mgr, target.Account, err, false)
		return
	}

	var resp convert.UpstreamResponse
	if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
		writeError(c, req.dialect, http.StatusBadGateway, "Transport", "malformed upstream response")
		return
	}

	ex := convert.ExtractResponse(resp, features.Model, d.Tools, genToolCallID)
	out, _ := convert.FromParts(req.dialect, uuid.NewString(), features.Model, ex, d.Config.Stream.PassSignatureToClient)
	mgr.RecordRequest(target.Account)
	c.JSON(http.StatusOK, out)
}

func (d *Deps) runStream(c *gin.Context, req chatRequest, features convert.ModelFeatures, mgr *account.Manager, target upstream.ChatTarget, env convert.UpstreamRequest) {
	resp, err := upstream.StreamGenerateContent(c.Request.Context(), d.StreamHTTPClient, target, env)
	if err != nil {
		d.handleUpstreamError(c, req.dialect, mgr, target.Account, err, false)
		return
	}
	defer resp.Body.Close()

	sseHeaders(c)
	c.Status(http.StatusOK)

	hasTools := len(env.Request.Tools) > 0
	emitter := stream.NewEmitter(features.Model, hasTools, d.Tools, d.SignatureCache, nil, genToolCallID)
	writer := stream.NewWriter(req.dialect, uuid.NewString(), features.Model)

	hb := stream.StartHeartbeat(c.Request.Context(), c.Writer, d.heartbeatInterval(), c.Writer.Flush)
	defer hb.Stop()

	var lb stream.LineBuffer
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, line := range lb.Append(buf[:n]) {
				events := emitter.FeedLine(line)
				if len(events) > 0 {
					if writeErr := writer.WriteEvents(c.Writer, events); writeErr != nil {
						return
					}
					c.Writer.Flush()
				}
			}
		}
		if readErr != nil {
			break
		}
	}
	writer.Close(c.Writer)
	mgr.RecordRequest(target.Account)
}

func (d *Deps) runFakeNonStream(c *gin.Context, req chatRequest, features convert.ModelFeatures, mgr *account.Manager, target upstream.ChatTarget, env convert.UpstreamRequest) {
	resp, err := upstream.StreamGenerateContent(c.Request.Context(), d.StreamHTTPClient, target, env)
	if err != nil {
		d.handleUpstreamError(c, req.dialect, mgr, target.Account, err, false)
		return
	}
	defer resp.Body.Close()

	hasTools := len(env.Request.Tools) > 0
	emitter := stream.NewEmitter(features.Model, hasTools, d.Tools, d.SignatureCache, nil, genToolCallID)
	var collector stream.Collector
	var lb stream.LineBuffer
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, line := range lb.Append(buf[:n]) {
				collector.Collect(emitter.FeedLine(line))
			}
		}
		if readErr != nil {
			break
		}
	}

	ex := collector.Result()
	out, _ := convert.FromParts(req.dialect, uuid.NewString(), features.Model, ex, d.Config.Stream.PassSignatureToClient)
	mgr.RecordRequest(target.Account)
	c.JSON(http.StatusOK, out)
}

// runFakeStream drives a one-shot (non-stream) upstream call and replays
// the collected result as a synthetic SSE stream, for the 假流式/ prefix
// (CLI pool only, spec §4.4: "stream from a collected non-stream").
func (d *Deps) runFakeStream(c *gin.Context, req chatRequest, features convert.ModelFeatures, mgr *account.Manager, target upstream.ChatTarget, env convert.UpstreamRequest) {
	body, err := upstream.GenerateContent(c.Request.Context(), d.HTTPClient, target, env, d.Config.RetryTimes)
	if err != nil {
		d.handleUpstreamError(c, req.dialect, mgr, target.Account, err, false)
		return
	}

	var resp convert.UpstreamResponse
	if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
		writeError(c, req.dialect, http.StatusBadGateway, "Transport", "malformed upstream response")
		return
	}
	ex := convert.ExtractResponse(resp, features.Model, d.Tools, genToolCallID)

	sseHeaders(c)
	c.Status(http.StatusOK)
	writer := stream.NewWriter(req.dialect, uuid.NewString(), features.Model)
	_ = stream.ReplayEvents(writer, c.Writer, stream.ToEvents(ex))
	c.Writer.Flush()
	mgr.RecordRequest(target.Account)
}

func (d *Deps) heartbeatInterval() time.Duration {
	seconds := d.Config.Stream.HeartbeatSeconds
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// handleUpstreamError classifies an upstream error per spec §7 and writes
// the dialect-shaped response, disabling the account on a token-kill 403.
func (d *Deps) handleUpstreamError(c *gin.Context, dialect constant.Dialect, mgr *account.Manager, acct *account.Account, err error, headersSent bool) {
	status := http.StatusBadGateway
	errType := "UpstreamError"
	message := upstream.ErrorMessage(err)

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusForbidden:
			if strings.Contains(message, "The caller does not") {
				status, errType = http.StatusBadRequest, "UpstreamPermissionDenied"
			} else {
				status, errType = http.StatusForbidden, "UpstreamTokenInvalid"
				mgr.DisableAccount(acct)
			}
		case http.StatusTooManyRequests:
			status, errType = http.StatusTooManyRequests, "UpstreamRateLimit"
			mgr.ReportQuotaExceeded(acct)
		case http.StatusBadRequest:
			status, errType = http.StatusBadRequest, "InvalidRequest"
		default:
			status, errType = statusErr.Status, "UpstreamError"
		}
	} else {
		status, errType = http.StatusBadGateway, "Transport"
	}

	if headersSent {
		writeStreamError(c, dialect, status, errType, message)
		return
	}
	writeError(c, dialect, status, errType, message)
}
