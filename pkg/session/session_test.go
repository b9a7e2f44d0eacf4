package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/session"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

const systemPrompt = "You are a gadget advisor."

func mustProfile(name string) provider.Profile {
	p, err := provider.Lookup(name)
	Expect(err).NotTo(HaveOccurred())
	return p
}

func nonSystem(turns []llm.Turn) []llm.Turn {
	if len(turns) > 0 && turns[0].Role == llm.RoleSystem {
		return turns[1:]
	}
	return turns
}

var _ = Describe("Controller", func() {
	var (
		sender    *testutils.FakeSender
		publisher *testutils.RecordingPublisher
		ctrl      *session.Controller
		ctx       context.Context
	)

	newController := func(profile provider.Profile) *session.Controller {
		c, err := session.New(session.Config{
			Profile:      profile,
			SystemPrompt: systemPrompt,
			Credential:   "sk-test",
			Timeout:      time.Second,
			Sender:       sender,
			Publisher:    publisher,
		})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
		sender = testutils.NewFakeSender(testutils.ChatReply("Try the Pixel 8a."))
		publisher = &testutils.RecordingPublisher{}
		ctrl = newController(mustProfile(provider.OpenAI))
	})

	It("requires a sender and a valid profile", func() {
		_, err := session.New(session.Config{Profile: mustProfile(provider.OpenAI)})
		Expect(err).To(HaveOccurred())

		_, err = session.New(session.Config{Profile: provider.Profile{Name: "broken"}, Sender: sender})
		Expect(err).To(HaveOccurred())
	})

	It("generates an id", func() {
		Expect(ctrl.ID()).NotTo(BeEmpty())
		Expect(ctrl.State()).To(Equal(session.Idle))
	})

	It("records the system prompt once, then the exchange", func() {
		transcript, err := ctrl.Submit(ctx, "  Best phone under 30000?  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(transcript).To(Equal([]llm.Turn{
			llm.SystemTurn(systemPrompt),
			llm.UserTurn("Best phone under 30000?"),
			llm.AssistantTurn("Try the Pixel 8a."),
		}))
		Expect(ctrl.State()).To(Equal(session.Idle))
	})

	It("sends the credential, timeout and full history", func() {
		_, err := ctrl.Submit(ctx, "first")
		Expect(err).NotTo(HaveOccurred())
		_, err = ctrl.Submit(ctx, "second")
		Expect(err).NotTo(HaveOccurred())

		calls := sender.Calls()
		Expect(calls).To(HaveLen(2))
		Expect(calls[1].Credential).To(Equal("sk-test"))
		Expect(calls[1].Timeout).To(Equal(time.Second))
		Expect(calls[1].Payload.Messages).To(Equal([]llm.Turn{
			llm.SystemTurn(systemPrompt),
			llm.UserTurn("first"),
			llm.AssistantTurn("Try the Pixel 8a."),
			llm.UserTurn("second"),
		}))
	})

	It("keeps strict alternation across successful submits", func() {
		const n = 5
		for range n {
			_, err := ctrl.Submit(ctx, "question")
			Expect(err).NotTo(HaveOccurred())
		}

		transcript := ctrl.Transcript()
		rest := nonSystem(transcript)
		Expect(rest).To(HaveLen(2 * n))
		for i, t := range rest {
			if i%2 == 0 {
				Expect(t.Role).To(Equal(llm.RoleUser))
			} else {
				Expect(t.Role).To(Equal(llm.RoleAssistant))
			}
		}

		systems := 0
		for i, t := range transcript {
			if t.Role == llm.RoleSystem {
				systems++
				Expect(i).To(Equal(0))
			}
		}
		Expect(systems).To(Equal(1))
	})

	It("omits the system turn when none is configured", func() {
		c, err := session.New(session.Config{Profile: mustProfile(provider.OpenAI), Sender: sender})
		Expect(err).NotTo(HaveOccurred())

		transcript, err := c.Submit(ctx, "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(transcript[0]).To(Equal(llm.UserTurn("hi")))
	})

	It("rejects empty input without calling the provider", func() {
		_, err := ctrl.Submit(ctx, " \n\t ")
		Expect(err).To(MatchError(session.ErrEmptyMessage))
		Expect(sender.Calls()).To(BeEmpty())
		Expect(ctrl.Transcript()).To(BeEmpty())
	})

	DescribeTable("keeps only the user turn on failure",
		func(reply testutils.Reply, kind llm.Kind, class llm.Class) {
			sender.Replies = []testutils.Reply{testutils.ChatReply("ok"), reply}

			_, err := ctrl.Submit(ctx, "warm up")
			Expect(err).NotTo(HaveOccurred())
			before := len(ctrl.Transcript())

			transcript, err := ctrl.Submit(ctx, "again")
			ce, ok := llm.AsCallError(err)
			Expect(ok).To(BeTrue())
			Expect(ce.Kind).To(Equal(kind))
			Expect(ce.Class()).To(Equal(class))

			Expect(transcript).To(HaveLen(before + 1))
			Expect(transcript[len(transcript)-1]).To(Equal(llm.UserTurn("again")))
			Expect(ctrl.State()).To(Equal(session.Idle))
		},
		Entry("auth", testutils.ErrorReply(llm.KindAuth, 401), llm.KindAuth, llm.ClassFatal),
		Entry("rate limit", testutils.ErrorReply(llm.KindRateLimited, 429), llm.KindRateLimited, llm.ClassRetryable),
		Entry("loading", testutils.ErrorReply(llm.KindLoading, 503), llm.KindLoading, llm.ClassRetryable),
		Entry("timeout", testutils.ErrorReply(llm.KindTimeout, 0), llm.KindTimeout, llm.ClassRetryable),
		Entry("plain error", testutils.Reply{Err: errors.New("dial tcp: refused")}, llm.KindConnection, llm.ClassRetryable),
		Entry("empty reply", testutils.RawReply(`{"choices":[{"message":{"content":"  "}}]}`), llm.KindEmptyResponse, llm.ClassFatal),
		Entry("wrong shape", testutils.RawReply(`{"generated_text":"x"}`), llm.KindUnexpectedShape, llm.ClassFatal),
		Entry("not json", testutils.RawReply(`<html>`), llm.KindParseError, llm.ClassFatal),
	)

	It("adds the system and user turns when the very first submit fails", func() {
		sender.Replies = []testutils.Reply{testutils.ErrorReply(llm.KindNotFound, 404)}

		transcript, err := ctrl.Submit(ctx, "hi")
		Expect(err).To(HaveOccurred())
		Expect(transcript).To(Equal([]llm.Turn{llm.SystemTurn(systemPrompt), llm.UserTurn("hi")}))
	})

	It("carries a failed user turn into the next request", func() {
		sender.Replies = []testutils.Reply{testutils.ErrorReply(llm.KindLoading, 503), testutils.ChatReply("ready")}

		_, err := ctrl.Submit(ctx, "first try")
		Expect(err).To(HaveOccurred())
		transcript, err := ctrl.Submit(ctx, "retry")
		Expect(err).NotTo(HaveOccurred())

		Expect(sender.Calls()[1].Payload.Messages).To(ContainElement(llm.UserTurn("first try")))
		Expect(transcript[len(transcript)-1]).To(Equal(llm.AssistantTurn("ready")))
	})

	It("resets idempotently", func() {
		_, err := ctrl.Submit(ctx, "hi")
		Expect(err).NotTo(HaveOccurred())

		Expect(ctrl.Reset()).To(BeEmpty())
		once := ctrl.Transcript()
		Expect(ctrl.Reset()).To(BeEmpty())
		Expect(ctrl.Transcript()).To(Equal(once))
		Expect(ctrl.State()).To(Equal(session.Idle))

		transcript, err := ctrl.Submit(ctx, "again")
		Expect(err).NotTo(HaveOccurred())
		Expect(transcript[0]).To(Equal(llm.SystemTurn(systemPrompt)))
	})

	Context("while a reply is pending", func() {
		var done chan error

		BeforeEach(func() {
			sender.Gate = make(chan struct{})
			sender.Started = make(chan struct{}, 1)
			done = make(chan error, 1)

			go func() {
				defer GinkgoRecover()
				_, err := ctrl.Submit(ctx, "slow question")
				done <- err
			}()
			Eventually(sender.Started).Should(Receive())
		})

		It("exposes the pending message without touching the conversation", func() {
			Expect(ctrl.State()).To(Equal(session.AwaitingReply))
			msg, ok := ctrl.Pending()
			Expect(ok).To(BeTrue())
			Expect(msg).To(Equal("slow question"))
			Expect(ctrl.Transcript()).To(BeEmpty())

			close(sender.Gate)
			Eventually(done).Should(Receive(BeNil()))
			_, ok = ctrl.Pending()
			Expect(ok).To(BeFalse())
			Expect(ctrl.Transcript()).To(HaveLen(3))
		})

		It("rejects a second submit", func() {
			_, err := ctrl.Submit(ctx, "impatient")
			Expect(err).To(MatchError(session.ErrBusy))

			close(sender.Gate)
			Eventually(done).Should(Receive(BeNil()))
			Expect(sender.Calls()).To(HaveLen(1))
			Expect(nonSystem(ctrl.Transcript())).To(Equal([]llm.Turn{
				llm.UserTurn("slow question"),
				llm.AssistantTurn("Try the Pixel 8a."),
			}))
		})

		It("discards the reply after a reset", func() {
			ctrl.Reset()
			Expect(ctrl.State()).To(Equal(session.Idle))

			close(sender.Gate)
			Eventually(done).Should(Receive(MatchError(session.ErrReset)))
			Expect(ctrl.Transcript()).To(BeEmpty())
		})
	})

	Describe("Send", func() {
		It("returns the reply with the transcript it was recorded in", func() {
			reply, err := ctrl.Send(ctx, "Best phone?")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Try the Pixel 8a."))
			Expect(reply.Transcript).To(HaveLen(3))
			Expect(reply.Transcript[2]).To(Equal(llm.AssistantTurn("Try the Pixel 8a.")))
		})

		It("keeps its transcript when a reset lands right after the turns are recorded", func() {
			resetting := &resetOnPublish{}
			c, err := session.New(session.Config{
				Profile:      mustProfile(provider.OpenAI),
				SystemPrompt: systemPrompt,
				Sender:       sender,
				Publisher:    resetting,
			})
			Expect(err).NotTo(HaveOccurred())
			resetting.ctrl = c

			reply, err := c.Send(ctx, "Best phone?")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Transcript()).To(BeEmpty())
			Expect(reply.Text).To(Equal("Try the Pixel 8a."))
			Expect(reply.Transcript).To(HaveLen(3))
		})

		It("always returns a reply alongside a nil error under concurrent resets", func() {
			stop := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
						ctrl.Reset()
					}
				}
			}()

			for range 500 {
				reply, err := ctrl.Send(ctx, "Best phone?")
				if err != nil {
					Expect(err).To(MatchError(session.ErrReset))
					continue
				}
				Expect(reply.Text).To(Equal("Try the Pixel 8a."))
				Expect(reply.Transcript).NotTo(BeEmpty())
				Expect(reply.Transcript[len(reply.Transcript)-1]).To(Equal(llm.AssistantTurn("Try the Pixel 8a.")))
			}
			close(stop)
			wg.Wait()
		})
	})

	Describe("IdleSince", func() {
		It("reports not idle while a call is in flight", func() {
			sender.Gate = make(chan struct{})
			sender.Started = make(chan struct{}, 1)
			done := make(chan error, 1)
			go func() {
				_, err := ctrl.Submit(ctx, "slow")
				done <- err
			}()
			Eventually(sender.Started).Should(Receive())

			_, idle := ctrl.IdleSince()
			Expect(idle).To(BeFalse())

			close(sender.Gate)
			Eventually(done).Should(Receive(BeNil()))
			since, idle := ctrl.IdleSince()
			Expect(idle).To(BeTrue())
			Expect(since).To(BeTemporally("~", time.Now(), time.Second))
		})
	})

	Describe("events", func() {
		It("publishes one event per resolved submit without content", func() {
			sender.Replies = []testutils.Reply{testutils.ChatReply("ok"), testutils.ErrorReply(llm.KindRateLimited, 429)}

			_, _ = ctrl.Submit(ctx, "a")
			_, _ = ctrl.Submit(ctx, "b")

			events := publisher.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[0].SessionID).To(Equal(ctrl.ID()))
			Expect(events[0].Outcome.Class).To(Equal("success"))
			Expect(events[0].Call.HTTPStatus).To(Equal(http.StatusOK))
			Expect(events[0].TurnCount).To(Equal(3))
			Expect(events[1].Outcome.Class).To(Equal("retryable"))
			Expect(events[1].Outcome.Kind).To(Equal("rate-limited"))
			Expect(events[1].Call.HTTPStatus).To(Equal(429))
			Expect(events[1].Source.Profile).To(Equal(provider.OpenAI))
		})

		It("does not fail the submit when publishing fails", func() {
			publisher.Err = errors.New("broker down")
			_, err := ctrl.Submit(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("with a completion profile", func() {
		It("renders the prompt and strips an echoed reply", func() {
			profile := mustProfile(provider.TGI).WithEndpoint("http://unused")
			c := newController(profile)

			echoed := "System: " + systemPrompt + "\nUser: Best tablet?\nAssistant: iPad Air."
			sender.Replies = []testutils.Reply{testutils.RawReply(`{"generated_text": ` + quote(echoed) + `}`)}

			transcript, err := c.Submit(ctx, "Best tablet?")
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript[len(transcript)-1]).To(Equal(llm.AssistantTurn("iPad Air.")))
			Expect(sender.Calls()[0].Payload.Prompt).To(Equal("System: " + systemPrompt + "\nUser: Best tablet?\nAssistant:"))
		})
	})

	It("reports a 503 from a live provider as loading", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20.0}`))
		}))
		DeferCleanup(server.Close)

		c, err := session.New(session.Config{
			Profile:      mustProfile(provider.HFZephyr).WithEndpoint(server.URL),
			SystemPrompt: systemPrompt,
			Sender:       provider.NewClient(server.Client(), nil),
		})
		Expect(err).NotTo(HaveOccurred())

		transcript, err := c.Submit(ctx, "hi")
		ce, ok := llm.AsCallError(err)
		Expect(ok).To(BeTrue())
		Expect(ce.Kind).To(Equal(llm.KindLoading))
		Expect(ce.Class()).To(Equal(llm.ClassRetryable))
		Expect(ce.Detail).To(Equal("Model is currently loading"))
		Expect(transcript).To(Equal([]llm.Turn{llm.SystemTurn(systemPrompt), llm.UserTurn("hi")}))
	})
})

// resetOnPublish resets its session from inside PublishTurn, which runs
// after the turns are recorded and the lock is released.
type resetOnPublish struct {
	testutils.RecordingPublisher
	ctrl *session.Controller
}

func (r *resetOnPublish) PublishTurn(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	r.ctrl.Reset()
	return r.RecordingPublisher.PublishTurn(ctx, event)
}
