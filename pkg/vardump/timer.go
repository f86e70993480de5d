package vardump

import (
	"fmt"
	"reflect"
	"time"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/settings"
)

type moment struct {
	name string
	at   time.Time
}

// TimerMoment records a named point in time. The first moment starts the
// timer.
func (i *Inspector) TimerMoment(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.moments = append(i.moments, moment{name: name, at: i.now()})
}

// TimerEnd adds a final moment and renders every recorded moment with its
// time since the start and since the previous moment. The timer is reset.
func (i *Inspector) TimerEnd() string {
	i.mu.Lock()
	moments := append(i.moments, moment{name: "end", at: i.now()})
	i.moments = nil
	i.mu.Unlock()

	pairs := make(model.Pairs, 0, len(moments))
	start, prev := moments[0].at, moments[0].at
	for _, m := range moments {
		pairs = append(pairs, model.Pair{
			Key:   m.name,
			Value: fmt.Sprintf("%s (+%s)", m.at.Sub(start), m.at.Sub(prev)),
		})
		prev = m.at
	}

	res := i.dump(reflect.ValueOf(pairs), caller(1), []string{i.catalog.Text(i.settings.String(settings.Language), "sectionTimer")})
	return i.deliver(res)
}
