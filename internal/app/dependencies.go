// Package app assembles the relay's object graph. Construction order is
// driven by the injector, so adding a service means adding one provider here.
package app

import (
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/relay"
	"github.com/nfrund/relay/internal/store"
	"github.com/nfrund/relay/internal/verifier"
	"github.com/nfrund/relay/internal/websocket"
)

// New builds the injector with every service the server needs. The tracer
// comes from the caller because its lifecycle (exporter shutdown) belongs to
// the process, not the graph.
func New(cfg config.Provider, tracer trace.Tracer) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i do.Injector) (store.Store, error) {
		return store.NewMemory(), nil
	})

	do.Provide(injector, func(i do.Injector) (verifier.Verifier, error) {
		c := do.MustInvoke[config.Provider](i)
		return verifier.NewHTTP(c.GetAPIBase(), c.GetAuthTimeout()), nil
	})

	do.Provide(injector, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(), nil
	})

	do.Provide(injector, func(i do.Injector) (pubsub.Publisher, error) {
		bus := do.MustInvoke[*pubsub.WatermillBridge](i)
		return pubsub.NewTracingPublisher(bus, tracer), nil
	})

	do.Provide(injector, func(i do.Injector) (pubsub.Subscriber, error) {
		return do.MustInvoke[*pubsub.WatermillBridge](i), nil
	})

	do.Provide(injector, func(i do.Injector) (*websocket.Bridge, error) {
		c := do.MustInvoke[config.Provider](i)
		return websocket.NewBridge(
			do.MustInvoke[pubsub.Publisher](i),
			do.MustInvoke[pubsub.Subscriber](i),
			c.GetAppOrigin(),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*relay.Engine, error) {
		c := do.MustInvoke[config.Provider](i)
		bridge := do.MustInvoke[*websocket.Bridge](i)
		return relay.NewEngine(relay.Dependencies{
			Store:       do.MustInvoke[store.Store](i),
			Verifier:    do.MustInvoke[verifier.Verifier](i),
			Transport:   bridge,
			Publisher:   do.MustInvoke[pubsub.Publisher](i),
			Subscriber:  do.MustInvoke[pubsub.Subscriber](i),
			AuthTimeout: c.GetAuthTimeout(),
		}), nil
	})

	return injector
}
