package mirror

import (
	"context"

	"nimbus/cmd/internal/remote"
)

// Subscription is a cancellable registration on the change stream.
type Subscription interface {
	Unsubscribe()
}

// Source is the slice of the backend client a Mirror depends on.
type Source interface {
	GetSession(ctx context.Context) (*remote.Session, error)
	Subscribe(ctx context.Context, handler remote.EventHandler) (Subscription, error)
}

type clientSource struct {
	c *remote.Client
}

func (s clientSource) GetSession(ctx context.Context) (*remote.Session, error) {
	return s.c.GetSession(ctx)
}

func (s clientSource) Subscribe(ctx context.Context, handler remote.EventHandler) (Subscription, error) {
	sub, err := s.c.Subscribe(ctx, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SourceFromClient adapts a backend client to the Source interface.
func SourceFromClient(c *remote.Client) Source {
	return clientSource{c: c}
}
