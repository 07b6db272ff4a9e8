// Package cache keeps resolved templates close to the senders.
//
// Two backends implement [Cache]: [Memory] for a single process and [Redis]
// when several workers should share lookups. [Loader] sits on top of either
// one and collapses concurrent misses for the same key into one call to the
// underlying store:
//
//	l := cache.NewLoader[*mailer.Template](cache.NewMemory[*mailer.Template](), time.Minute)
//	tmpl, err := l.Load(ctx, key, func(ctx context.Context) (*mailer.Template, error) {
//		return store.FindTemplate(ctx, name, related)
//	})
//
// The Redis backend serializes values with JSON unless a [Marshaler] is
// given and keeps every key under a prefix ("mailtemplates" by default).
package cache
