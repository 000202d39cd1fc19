package sse_test

import (
	. "github.com/agothe/agothe/core/sse"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Messages", func() {
	It("renders a plain data frame", func() {
		Expect(NewMessage("hello").String()).To(Equal("data: hello\n\n"))
	})

	It("renders the event line when one is set", func() {
		frame := NewMessage(`{"x":1}`).WithEvent("overview").String()
		Expect(frame).To(Equal("event: overview\ndata: {\"x\":1}\n\n"))
	})

	It("marshals JSON payloads", func() {
		frame := NewJSONMessage("overview", map[string]int{"total_agents": 4}).String()
		Expect(frame).To(Equal("event: overview\ndata: {\"total_agents\":4}\n\n"))
	})

	It("degrades unmarshalable payloads to an error frame", func() {
		frame := NewJSONMessage("overview", make(chan int)).String()
		Expect(frame).To(HavePrefix("event: error\n"))
	})
})

var _ = Describe("Manager", func() {
	It("assigns every client a unique id", func() {
		Expect(NewClient().ID()).ToNot(Equal(NewClient().ID()))
	})

	It("starts with no clients and drops frames sent to nobody", func() {
		manager := NewManager(1)
		Expect(manager.Clients()).To(BeEmpty())
		manager.Send(NewMessage("nobody is listening"))
		Expect(manager.Clients()).To(BeEmpty())
	})
})
