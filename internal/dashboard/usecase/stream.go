package usecase

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/blankon/cidash/internal/logstream"
)

// StreamURL returns the console stream url: the configured one, else the
// one advertised by the API, else one derived from the API url.
func (u *DashboardUsecase) StreamURL(ctx context.Context) string {
	if u.websocketURL != "" {
		return u.websocketURL
	}
	info, err := u.LoadInfo(ctx)
	if err != nil {
		return u.api.StreamURL(nil)
	}
	return u.api.StreamURL(&info)
}

// StreamConsole streams the console of a build into buf until the stream
// ends or ctx is done. buf always ends with the end of stream marker.
func (u *DashboardUsecase) StreamConsole(ctx context.Context, req logstream.Request, buf *logstream.Buffer) error {
	if req.UUID == "" {
		buf.Close()
		return ErrBuildUUIDMissing
	}

	relayID := uuid.NewString()
	if u.cache != nil {
		if err := u.cache.AddStream(ctx, u.tenant, req.UUID, relayID); err != nil {
			log.Printf("[StreamConsole] %v", err)
		}
		defer func() {
			if err := u.cache.RemoveStream(context.Background(), u.tenant, relayID); err != nil {
				log.Printf("[StreamConsole] %v", err)
			}
		}()
	}

	receiver := u.receiver
	if receiver == nil {
		receiver = logstream.NewReceiver()
	}
	return receiver.Stream(ctx, u.StreamURL(ctx), req, buf)
}
