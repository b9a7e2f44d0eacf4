package llm_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/llm"
)

var _ = Describe("Kind", func() {
	DescribeTable("classifies kinds",
		func(kind llm.Kind, retryable bool) {
			Expect(kind.Retryable()).To(Equal(retryable))
			if retryable {
				Expect(kind.Class()).To(Equal(llm.ClassRetryable))
			} else {
				Expect(kind.Class()).To(Equal(llm.ClassFatal))
			}
		},
		Entry("auth", llm.KindAuth, false),
		Entry("not found", llm.KindNotFound, false),
		Entry("rate limited", llm.KindRateLimited, true),
		Entry("loading", llm.KindLoading, true),
		Entry("server error", llm.KindServerError, true),
		Entry("connection", llm.KindConnection, true),
		Entry("timeout", llm.KindTimeout, true),
		Entry("parse error", llm.KindParseError, false),
		Entry("empty response", llm.KindEmptyResponse, false),
		Entry("unexpected shape", llm.KindUnexpectedShape, false),
		Entry("unexpected status", llm.KindUnexpectedStatus, false),
	)

	It("lists every kind once", func() {
		seen := map[llm.Kind]bool{}
		for _, k := range llm.Kinds() {
			Expect(seen).NotTo(HaveKey(k))
			seen[k] = true
		}
		Expect(seen).To(HaveLen(11))
	})
})

var _ = Describe("Outcome", func() {
	It("carries a reply on success and no error", func() {
		o := llm.Success("hello")
		Expect(o.OK()).To(BeTrue())
		Expect(o.Class()).To(Equal(llm.ClassSuccess))
		Expect(o.Reply).To(Equal("hello"))
		Expect(o.Kind()).To(BeEmpty())
	})

	It("carries an error and no reply on failure", func() {
		o := llm.Failure(llm.KindLoading, "model warming up")
		Expect(o.OK()).To(BeFalse())
		Expect(o.Reply).To(BeEmpty())
		Expect(o.Class()).To(Equal(llm.ClassRetryable))
		Expect(o.Kind()).To(Equal(llm.KindLoading))
	})

	It("treats unclassified errors as connection failures", func() {
		o := llm.FailureFrom(errors.New("boom"))
		Expect(o.Kind()).To(Equal(llm.KindConnection))
		Expect(errors.Unwrap(o.Err)).To(MatchError("boom"))
	})

	It("keeps classified errors as is", func() {
		ce := llm.NewCallError(llm.KindAuth, "bad token")
		o := llm.FailureFrom(fmt.Errorf("sending: %w", ce))
		Expect(o.Err).To(BeIdenticalTo(ce))
	})
})

var _ = Describe("CallError", func() {
	It("formats kind, status and detail", func() {
		err := &llm.CallError{Kind: llm.KindUnexpectedStatus, StatusCode: 418, Detail: "teapot"}
		Expect(err.Error()).To(Equal("llm fatal: unexpected-status (http 418): teapot"))
	})

	It("is detected through wrapping", func() {
		err := fmt.Errorf("outer: %w", llm.NewCallError(llm.KindTimeout, ""))
		Expect(llm.IsRetryable(err)).To(BeTrue())

		ce, ok := llm.AsCallError(err)
		Expect(ok).To(BeTrue())
		Expect(ce.Kind).To(Equal(llm.KindTimeout))
	})

	It("is not retryable for plain errors", func() {
		Expect(llm.IsRetryable(errors.New("x"))).To(BeFalse())
	})
})
