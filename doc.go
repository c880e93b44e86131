/*
Package pulsenet provides a discrete-event simulator for networks of named
signal modules exchanging Low and High pulses, and a period detector that
extrapolates the long-run behavior of such networks.

A network is described by a list of ModuleSpec records (see Parse for the
text format). Three kinds of modules exist:

	Broadcaster  forwards every pulse unchanged to all of its outputs.
	FlipFlop     ignores High pulses. On Low, toggles and sends High if it
	             turned on, Low if it turned off.
	Conjunction  remembers the last level received from each input (Low
	             initially) and sends Low if all are High, High otherwise.

A button press sends a Low pulse from the implicit "button" to the
broadcaster. Pulses are then delivered in strict first-in first-out order
until no pulse is left. Module state persists from one press to the next.

Some networks only reach a given condition after an astronomical number of
presses. When the condition is gated by a Conjunction whose inputs fire
periodically, FirstLow finds the period of every input and combines them
instead of simulating every press.
*/
package pulsenet
