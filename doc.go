/*
Package mcusim provides the event source of a firmware test harness: a cycle
counting simulation that exposes pin and bus level signal changes of a
simulated microcontroller as named IRQs.

Observers register on IRQs with Notify and get called synchronously, with the
new value, every time an IRQ is raised. Cycle timers run code at a given cycle
and may reschedule themselves. Per-cycle components are updated on every step.

Everything runs on the goroutine calling Step or Run. Observers must return
promptly and must not block.

The decoders built on top of this package live in the neopixel and twi
packages. The harness package wires them together.

*/
package mcusim
