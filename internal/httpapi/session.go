package httpapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethan/cloudrender-relay/internal/config"
	"github.com/ethan/cloudrender-relay/internal/driver"
	"github.com/ethan/cloudrender-relay/internal/encoder"
	"github.com/ethan/cloudrender-relay/internal/framesource"
	"github.com/ethan/cloudrender-relay/internal/pump"
	"github.com/ethan/cloudrender-relay/internal/rtcsession"
	"github.com/ethan/cloudrender-relay/internal/session"
	"github.com/ethan/cloudrender-relay/internal/transport"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

// startSession wires one offer into a running session: it binds a dedicated
// UDP endpoint, builds a render session from src, constructs the encoder
// stage and its surrounding pump/driver tasks, and negotiates the
// PeerConnection, returning the SDP answer. The session tears itself down
// when the driver's event loop exits (ICE disconnect or ctx cancellation);
// the returned cleanup is the same teardown, exposed as a once-safe func for
// callers that need to force an early stop (tests, server shutdown).
func startSession(ctx context.Context, cfg config.Config, src framesource.Source, offerSDP string, log *logger.Logger) (answerSDP string, cleanup func(), err error) {
	endpoint, err := transport.NewUDPEndpoint(cfg.PublicIP)
	if err != nil {
		return "", nil, fmt.Errorf("httpapi: bind session endpoint: %w", err)
	}

	renderSession, err := src.NewSession(ctx, cfg.InitialWidth, cfg.InitialHeight)
	if err != nil {
		endpoint.Close()
		return "", nil, fmt.Errorf("httpapi: new render session: %w", err)
	}

	state := session.New()

	encStage, err := encoder.NewStage(encoder.Config{
		Width:              cfg.InitialWidth,
		Height:             cfg.InitialHeight,
		InitialBitrateBps:  cfg.InitialBitrateBps,
		PixelFormat:        encoder.PixelFormatBGRA,
		EnableRateReconfig: cfg.EnableRateReconfig,
		NewBackend:         encoder.NewSoftwareBackend,
	}, time.Now())
	if err != nil {
		endpoint.Close()
		return "", nil, fmt.Errorf("httpapi: new encoder stage: %w", err)
	}

	adapter, answer, err := rtcsession.NewAdapter(rtcsession.Config{
		UDPConn:  endpoint.Conn(),
		PublicIP: cfg.PublicIP,
		Log:      log,
	}, offerSDP)
	if err != nil {
		encStage.Close()
		endpoint.Close()
		return "", nil, fmt.Errorf("httpapi: negotiate session: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)

	rawCh := make(chan pump.RawFrameDelivery, 1)
	encodedCh := make(chan encoder.EncodedFrame, 1)

	p := pump.New(renderSession, rawCh, log)
	runner := encoder.NewRunner(encStage, renderSession, state, rawCh, encodedCh, log)
	drv := driver.New(adapter, state, encodedCh, log)

	var closeOnce sync.Once
	cleanup = func() {
		closeOnce.Do(func() {
			cancel()
			encStage.Close()
			endpoint.Close()
		})
	}

	go p.Run(sessionCtx)
	go runner.Run(sessionCtx)
	go func() {
		drv.Run(sessionCtx)
		cleanup()
	}()

	return answer, cleanup, nil
}
