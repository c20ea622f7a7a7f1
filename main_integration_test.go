package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/stylecoach/internal/auth"
	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/handlers"
	"github.com/example/stylecoach/internal/landmark"
	"github.com/example/stylecoach/internal/season"
	"github.com/example/stylecoach/internal/session"
	"github.com/example/stylecoach/internal/usecase"
)

const integrationSecret = "integration-secret"

// blockingService holds AnalyzeFrame open until released.
type blockingService struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingService) AnalyzeFrame(ctx context.Context, viewerID, sessionID string, imageBytes []byte) (*usecase.FrameAnalysis, error) {
	close(s.started)
	<-s.release
	current := session.New(sessionID, viewerID, time.Now())
	current.State = session.AwaitingBody
	return &usecase.FrameAnalysis{RequestID: "req-1", Session: current, Advanced: true}, nil
}

func (s *blockingService) StartSession(ctx context.Context, viewerID string) (*session.Session, error) {
	return session.New("s-1", viewerID, time.Now()), nil
}

func (s *blockingService) GetSession(ctx context.Context, viewerID, sessionID string) (*session.Session, error) {
	return session.New(sessionID, viewerID, time.Now()), nil
}

func (s *blockingService) ResetSession(ctx context.Context, viewerID, sessionID string) (*session.Session, error) {
	return s.GetSession(ctx, viewerID, sessionID)
}

func (s *blockingService) DetectFrame(ctx context.Context, requestID string, imageBytes []byte) (*usecase.Detection, error) {
	return &usecase.Detection{RequestID: requestID}, nil
}

func (s *blockingService) ApplyDetection(ctx context.Context, viewerID, sessionID string, detection *usecase.Detection) (*usecase.FrameAnalysis, error) {
	return nil, usecase.ErrSessionNotFound
}

func (s *blockingService) ClassifyBody(ctx context.Context, requestID, schemaName string, pose landmark.Frame) (bodyshape.Result, error) {
	return bodyshape.Result{}, nil
}

func (s *blockingService) ClassifyColor(ctx context.Context, requestID string, imageBytes []byte, face landmark.Frame, policyName string) (season.Result, error) {
	return season.Result{}, nil
}

func (s *blockingService) Recommend(ctx context.Context, requestID string, body bodyshape.Category, tone season.Category) (*usecase.Recommendation, error) {
	return &usecase.Recommendation{}, nil
}

func (s *blockingService) Catalog(ctx context.Context, requestID string) ([]catalog.Entry, error) {
	return catalog.Defaults(), nil
}

func (s *blockingService) GetMetricsSummary() *usecase.MetricsSummary {
	return &usecase.MetricsSummary{}
}

func TestServerGracefulShutdownFinishesInFlightFrame(t *testing.T) {
	logger := zap.NewNop()

	svc := &blockingService{started: make(chan struct{}), release: make(chan struct{})}
	released := false
	defer func() {
		if !released {
			close(svc.release)
		}
	}()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.MaxMultipartMemory = handlers.MaxUploadSize
	handlers.RegisterRoutes(router, svc, auth.JWTMiddleware(integrationSecret, ""), handlers.Options{Logger: logger})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	server := &http.Server{Handler: router}

	signalCh := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- serveHTTPServerWithOptions(server, 2*time.Second, logger, listener, signalCh)
	}()

	addr := listener.Addr().String()
	waitForServer(t, addr)

	req := frameRequest(t, "http://"+addr+"/v1/sessions/s-1/frames")
	client := &http.Client{Timeout: 3 * time.Second}
	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := client.Do(req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case <-svc.started:
	case err := <-errCh:
		t.Fatalf("request failed before reaching the use case: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("frame analysis did not start in time")
	}

	signalCh <- syscall.SIGTERM

	time.Sleep(50 * time.Millisecond)
	released = true
	close(svc.release)

	select {
	case resp := <-respCh:
		t.Cleanup(func() { resp.Body.Close() })
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d body: %s", resp.StatusCode, string(body))
		}
		var analysis usecase.FrameAnalysis
		if err := json.Unmarshal(body, &analysis); err != nil {
			t.Fatalf("decode analysis: %v", err)
		}
		if !analysis.Advanced || analysis.Session == nil || analysis.Session.State != session.AwaitingBody {
			t.Fatalf("unexpected analysis %s", string(body))
		}
	case err := <-errCh:
		t.Fatalf("request failed: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("request did not complete")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server did not shutdown cleanly: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not exit after shutdown")
	}

	if _, err := net.DialTimeout("tcp", addr, 100*time.Millisecond); err == nil {
		t.Fatal("listener still accepting after shutdown")
	}
}

func frameRequest(t *testing.T, url string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="frame.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("\x89PNG\r\n\x1a\n0000")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	token, err := auth.IssueToken(integrationSecret, "", "viewer-1", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server %s did not become ready", addr)
}
