package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/realtime-chat/broker/internal/model"
)

// For any number of sends and any join point, the sequence of message ids a
// session observes (its history replay followed by live broadcasts) is a
// contiguous, strictly increasing suffix of the global send order: no
// duplicates, no gaps, no reordering.
func TestEngineJoinerObservesGaplessSuffixProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	const historyLimit = 100

	properties.Property("history plus live broadcasts form a gapless suffix", prop.ForAll(
		func(total, joinAfter int) bool {
			if joinAfter > total {
				joinAfter = total
			}

			e := newTestEngine(historyLimit, time.Second)
			senderSink := &fakeSink{}
			sender := e.OnConnect(senderSink)
			if err := e.OnLogin(sender, "sender"); err != nil {
				return false
			}

			var globalIDs []int64
			send := func() bool {
				if err := e.OnSend(sender, "payload"); err != nil {
					return false
				}
				msgs := senderSink.byEvent(model.EventNewMessage)
				var msg model.Message
				if err := json.Unmarshal(msgs[len(msgs)-1].Payload, &msg); err != nil {
					return false
				}
				globalIDs = append(globalIDs, msg.ID)
				return true
			}

			for i := 0; i < joinAfter; i++ {
				if !send() {
					return false
				}
			}

			observerSink := &fakeSink{}
			e.OnConnect(observerSink)

			for i := joinAfter; i < total; i++ {
				if !send() {
					return false
				}
			}

			// Collect what the observer saw, replay first
			var observed []int64
			histories := observerSink.byEvent(model.EventMessageHistory)
			if len(histories) != 1 {
				return false
			}
			var history []model.Message
			if err := json.Unmarshal(histories[0].Payload, &history); err != nil {
				return false
			}
			for _, m := range history {
				observed = append(observed, m.ID)
			}
			for _, env := range observerSink.byEvent(model.EventNewMessage) {
				var m model.Message
				if err := json.Unmarshal(env.Payload, &m); err != nil {
					return false
				}
				observed = append(observed, m.ID)
			}

			// Expected: everything from the start of the replay window onward
			start := joinAfter - historyLimit
			if start < 0 {
				start = 0
			}
			expected := globalIDs[start:]

			if len(observed) != len(expected) {
				return false
			}
			for i := range observed {
				if observed[i] != expected[i] {
					return false
				}
				if i > 0 && observed[i] <= observed[i-1] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 150),
		gen.IntRange(0, 150),
	))

	properties.TestingRun(t)
}
