package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		Expect(Truncate("this is a long string", 10)).To(Equal("this is a ..."))
	})

	It("backs off to a rune boundary", func() {
		// "₹" is three bytes starting at index 4.
		Expect(Truncate("cost₹500", 5)).To(Equal("cost..."))
	})

	It("handles a zero limit", func() {
		Expect(Truncate("abc", 0)).To(Equal("..."))
	})
})
