package chatcmder

import (
	"context"

	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/session"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

var _ = Describe("Chat TUI model", func() {
	var (
		ctx    context.Context
		sender *testutils.FakeSender
		ctrl   *session.Controller
		model  chatModel
	)

	update := func(msg bubbletea.Msg) bubbletea.Cmd {
		next, cmd := model.Update(msg)
		model = next.(chatModel)
		return cmd
	}

	enter := func(text string) bubbletea.Cmd {
		model.input.SetValue(text)
		return update(bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
	}

	BeforeEach(func() {
		ctx = context.Background()
		profile, err := provider.Lookup(provider.Groq)
		Expect(err).NotTo(HaveOccurred())

		sender = testutils.NewFakeSender(testutils.ChatReply("The Pixel 8a."))
		ctrl, err = session.New(session.Config{
			Profile:      profile,
			SystemPrompt: "You are a gadget advisor.",
			Sender:       sender,
		})
		Expect(err).NotTo(HaveOccurred())

		model = newChatModel(ctx, ctrl)
		update(bubbletea.WindowSizeMsg{Width: 100, Height: 30})
	})

	It("sizes the viewport from the window", func() {
		Expect(model.viewport.Width).To(Equal(100))
		Expect(model.viewport.Height).To(Equal(30 - chrome))
	})

	It("submits a message and shows the reply", func() {
		cmd := enter("Best phone?")
		Expect(cmd).NotTo(BeNil())
		Expect(model.waiting).To(BeTrue())
		Expect(model.input.Value()).To(BeEmpty())
		Expect(model.View()).To(ContainSubstring("Best phone?"))

		transcript, err := ctrl.Submit(ctx, "Best phone?")
		update(replyMsg{seq: model.seq, transcript: transcript, err: err})

		Expect(model.waiting).To(BeFalse())
		Expect(model.View()).To(ContainSubstring("The Pixel 8a."))
	})

	It("runs submits through submitCmd", func() {
		msg := submitCmd(ctx, ctrl, 7, "hello")()
		reply, ok := msg.(replyMsg)
		Expect(ok).To(BeTrue())
		Expect(reply.seq).To(Equal(7))
		Expect(reply.err).NotTo(HaveOccurred())
		Expect(reply.transcript).To(HaveLen(3))
	})

	It("ignores blank input", func() {
		Expect(enter("   ")).To(BeNil())
		Expect(model.waiting).To(BeFalse())
	})

	It("refuses a second message while waiting", func() {
		enter("first")
		Expect(enter("second")).To(BeNil())
		Expect(model.notice).To(ContainSubstring("still waiting"))
	})

	It("shows provider failures as a notice", func() {
		enter("hello")
		update(replyMsg{seq: model.seq, err: &llm.CallError{Kind: llm.KindRateLimited, StatusCode: 429}})
		Expect(model.View()).To(ContainSubstring("Rate limited"))
	})

	It("drops replies from before a reset", func() {
		enter("hello")
		stale := model.seq
		update(bubbletea.KeyMsg{Type: bubbletea.KeyCtrlR})
		Expect(model.notice).To(ContainSubstring("conversation cleared"))

		update(replyMsg{seq: stale, err: &llm.CallError{Kind: llm.KindTimeout}})
		Expect(model.notice).To(ContainSubstring("conversation cleared"))
	})

	It("resets with /reset", func() {
		_, err := ctrl.Submit(ctx, "hi")
		Expect(err).NotTo(HaveOccurred())

		enter("/reset")
		Expect(ctrl.Transcript()).To(BeEmpty())
	})

	It("quits on /exit and esc", func() {
		Expect(enter("/exit")).NotTo(BeNil())
		Expect(update(bubbletea.KeyMsg{Type: bubbletea.KeyEsc})).NotTo(BeNil())
	})
})
