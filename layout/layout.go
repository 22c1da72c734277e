package layout

import (
	"fmt"
	"iter"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
)

// Fixed capacities. Nothing in the engine allocates after New.
const (
	MaxStates     = 64 // simultaneously active keycodes and custom actions
	MaxLayerStack = 8  // simultaneously held or toggled layers
	QueueSize     = 16 // events awaiting processing
	MaxTriStates  = 4  // tri-state layer definitions
)

// CustomKind distinguishes custom action signals.
type CustomKind uint8

// Custom action signal kinds.
const (
	CustomNone CustomKind = iota
	CustomPress
	CustomRelease
)

// CustomEvent reports a custom action edge to the orchestrator. It is
// returned once, by the Tick that processed the edge.
type CustomEvent struct {
	Kind  CustomKind
	Value uint16
}

// KeyState is the resolution state of one coordinate.
type KeyState uint8

// Per-coordinate states.
const (
	KeyIdle KeyState = iota
	KeyHoldTapPending
	KeyResolvedHold
	KeyResolvedTap
	KeySimpleDown
)

// String returns a string representation of the state.
func (s KeyState) String() string {
	switch s {
	case KeyIdle:
		return "idle"
	case KeyHoldTapPending:
		return "holdtap-pending"
	case KeyResolvedHold:
		return "resolved-hold"
	case KeyResolvedTap:
		return "resolved-tap"
	case KeySimpleDown:
		return "down"
	default:
		return "unknown"
	}
}

// origin records how an active state came about.
type origin uint8

const (
	originDirect origin = iota
	originHold
	originTap
)

func (o origin) keyState() KeyState {
	switch o {
	case originHold:
		return KeyResolvedHold
	case originTap:
		return KeyResolvedTap
	default:
		return KeySimpleDown
	}
}

type stateKind uint8

const (
	stateKey stateKind = iota
	stateCustom
)

// activeState is one asserted keycode or custom action, owned by the
// coordinate whose release clears it.
type activeState struct {
	kind   stateKind
	key    report.Keycode
	custom uint16
	coord  event.Coordinate
	origin origin
}

type layerEntry struct {
	layer   uint8
	coord   event.Coordinate
	toggled bool
	origin  origin
}

// queued holds an event with the tick it became due, the first tick that
// could have processed it.
type queued struct {
	ev event.Event
	at uint32
}

type waiting struct {
	coord event.Coordinate
	start uint32
	ht    *HoldTapAction
}

// TriState activates Layer while both A and B are on the layer stack.
type TriState struct {
	A, B  uint8
	Layer uint8
}

// Layout resolves coordinate events into active keycodes.
//
// Events are queued by Event and processed by Tick, at most one per tick.
// While a hold-tap is pending, queued events wait so that they resolve
// against the hold-tap's outcome.
type Layout struct {
	layers *Layers
	base   uint8
	now    uint32

	stack  [MaxLayerStack]layerEntry
	nstack int

	states  [MaxStates]activeState
	nstates int

	queue [QueueSize]queued
	qhead int
	qlen  int

	wait    waiting
	pending bool

	tri  [MaxTriStates]TriState
	ntri int

	lastTap      event.Coordinate
	lastTapAt    uint32
	lastTapValid bool
}

// New creates an engine over layers with layer 0 as the base.
func New(layers *Layers) *Layout {
	return &Layout{layers: layers}
}

// AddTriStateLayer makes layer active whenever layers a and b are both
// active.
func (l *Layout) AddTriStateLayer(a, b, layer uint8) error {
	count := l.layers.Count()
	if int(a) >= count || int(b) >= count || int(layer) >= count {
		return fmt.Errorf("tri-state (%d,%d)->%d: %w", a, b, layer, pkg.ErrInvalidParameter)
	}
	if a == b || layer == a || layer == b {
		return fmt.Errorf("tri-state (%d,%d)->%d needs distinct layers: %w", a, b, layer, pkg.ErrInvalidParameter)
	}
	if l.ntri == MaxTriStates {
		return fmt.Errorf("tri-state (%d,%d)->%d: %w", a, b, layer, pkg.ErrNoResources)
	}
	l.tri[l.ntri] = TriState{A: a, B: b, Layer: layer}
	l.ntri++
	return nil
}

// Layers returns the action table.
func (l *Layout) Layers() *Layers { return l.layers }

// Now returns the number of ticks processed.
func (l *Layout) Now() uint32 { return l.now }

// DefaultLayer returns the current base layer.
func (l *Layout) DefaultLayer() uint8 { return l.base }

// Event queues a key transition. Events outside the table are ignored.
func (l *Layout) Event(ev event.Event) {
	if !l.layers.Contains(ev.Coord) {
		pkg.LogDebug(pkg.ComponentLayout, "event outside layout ignored", "event", ev.String())
		return
	}
	if l.qlen == QueueSize {
		pkg.LogWarn(pkg.ComponentLayout, "event queue full, forcing oldest event",
			"event", ev.String())
		if l.pending {
			lostCustom(l.resolve(true))
		}
		old, _ := l.dequeue()
		lostCustom(l.process(old.ev, min(old.at, l.now)))
	}
	l.queue[(l.qhead+l.qlen)%QueueSize] = queued{ev: ev, at: l.now + 1}
	l.qlen++
}

func lostCustom(ce CustomEvent) {
	if ce.Kind != CustomNone {
		pkg.LogWarn(pkg.ComponentLayout, "custom action edge lost to queue overflow",
			"value", ce.Value)
	}
}

// Tick advances time by one tick, then either advances a pending hold-tap
// or processes the oldest queued event.
func (l *Layout) Tick() CustomEvent {
	l.now++

	if l.pending {
		switch l.decide() {
		case decisionHold:
			return l.resolve(true)
		case decisionTap:
			return l.resolve(false)
		default:
			return CustomEvent{}
		}
	}

	q, ok := l.dequeue()
	if !ok {
		return CustomEvent{}
	}
	ce := l.process(q.ev, q.at)
	// A hold-tap that waited in the queue past its timeout resolves now.
	if l.pending && l.now-l.wait.start >= uint32(l.wait.ht.Timeout) {
		return l.resolve(l.decide() != decisionTap)
	}
	return ce
}

func (l *Layout) dequeue() (queued, bool) {
	if l.qlen == 0 {
		return queued{}, false
	}
	q := l.queue[l.qhead]
	l.qhead = (l.qhead + 1) % QueueSize
	l.qlen--
	return q, true
}

func (l *Layout) queued(i int) queued {
	return l.queue[(l.qhead+i)%QueueSize]
}

// process applies ev. since is the tick ev became due, which starts the
// timeout of a hold-tap it presses.
func (l *Layout) process(ev event.Event, since uint32) CustomEvent {
	if ev.IsPress() {
		return l.do(l.resolveAction(ev.Coord), ev.Coord, originDirect, since)
	}
	return l.release(ev.Coord)
}

// resolveAction searches active tri-state layers, then the layer stack from
// most recently activated down, then the base layer, skipping transparent
// bindings.
func (l *Layout) resolveAction(c event.Coordinate) Action {
	for i := 0; i < l.ntri; i++ {
		ts := l.tri[i]
		if !l.onStack(ts.A) || !l.onStack(ts.B) {
			continue
		}
		if a := l.layers.Action(ts.Layer, c); a.Kind != ActionTransparent {
			return a
		}
	}
	for i := l.nstack - 1; i >= 0; i-- {
		if a := l.layers.Action(l.stack[i].layer, c); a.Kind != ActionTransparent {
			return a
		}
	}
	if a := l.layers.Action(l.base, c); a.Kind != ActionTransparent {
		return a
	}
	return NoOp
}

func (l *Layout) onStack(layer uint8) bool {
	for i := 0; i < l.nstack; i++ {
		if l.stack[i].layer == layer {
			return true
		}
	}
	return false
}

func (l *Layout) do(a Action, c event.Coordinate, o origin, since uint32) CustomEvent {
	switch a.Kind {
	case ActionKeycode:
		l.addState(activeState{kind: stateKey, key: a.Key, coord: c, origin: o})

	case ActionModified:
		for bit := 0; bit < 8; bit++ {
			if a.Mods&(1<<bit) != 0 {
				mod := report.KeyLeftCtrl + report.Keycode(bit)
				l.addState(activeState{kind: stateKey, key: mod, coord: c, origin: o})
			}
		}
		l.addState(activeState{kind: stateKey, key: a.Key, coord: c, origin: o})

	case ActionMomentaryLayer:
		l.pushLayer(layerEntry{layer: a.Layer, coord: c, origin: o})

	case ActionToggleLayer:
		for i := 0; i < l.nstack; i++ {
			if l.stack[i].toggled && l.stack[i].layer == a.Layer {
				l.removeLayer(i)
				return CustomEvent{}
			}
		}
		l.pushLayer(layerEntry{layer: a.Layer, coord: c, toggled: true, origin: o})

	case ActionDefaultLayer:
		l.base = a.Layer
		pkg.LogInfo(pkg.ComponentLayout, "default layer changed", "layer", a.Layer)

	case ActionHoldTap:
		if o != originDirect || a.HoldTap == nil {
			return CustomEvent{}
		}
		ht := a.HoldTap
		if ht.TapHoldInterval > 0 && l.lastTapValid && l.lastTap == c &&
			(since <= l.lastTapAt || since-l.lastTapAt < uint32(ht.TapHoldInterval)) {
			return l.do(ht.Tap, c, originTap, since)
		}
		l.wait = waiting{coord: c, start: since, ht: ht}
		l.pending = true

	case ActionCustom:
		l.addState(activeState{kind: stateCustom, custom: a.Custom, coord: c, origin: o})
		return CustomEvent{Kind: CustomPress, Value: a.Custom}
	}
	return CustomEvent{}
}

type decision uint8

const (
	decisionNone decision = iota
	decisionHold
	decisionTap
)

// decide inspects the queue on behalf of the pending hold-tap. Only events
// queued before the key's own release can interrupt it.
func (l *Layout) decide() decision {
	w := &l.wait
	for i := 0; i < l.qlen; i++ {
		ev := l.queued(i).ev
		if ev.Coord == w.coord {
			if ev.IsRelease() {
				return decisionTap
			}
			continue
		}
		if !ev.IsPress() {
			continue
		}
		switch w.ht.Config {
		case HoldTapHoldOnOtherKeyPress:
			return decisionHold
		case HoldTapPermissiveHold:
			for j := i + 1; j < l.qlen; j++ {
				later := l.queued(j).ev
				if later.Coord == w.coord && later.IsRelease() {
					break
				}
				if later.Coord == ev.Coord && later.IsRelease() {
					return decisionHold
				}
			}
		}
	}
	if l.now-w.start >= uint32(w.ht.Timeout) {
		return decisionHold
	}
	return decisionNone
}

func (l *Layout) resolve(hold bool) CustomEvent {
	w := l.wait
	l.pending = false
	l.wait = waiting{}

	pkg.LogDebug(pkg.ComponentLayout, "hold-tap resolved",
		"coord", w.coord.String(),
		"hold", hold,
		"ticks", l.now-w.start)

	if hold {
		return l.do(w.ht.Hold, w.coord, originHold, l.now)
	}
	l.lastTap, l.lastTapAt, l.lastTapValid = w.coord, l.now, true
	return l.do(w.ht.Tap, w.coord, originTap, l.now)
}

func (l *Layout) release(c event.Coordinate) CustomEvent {
	var ce CustomEvent
	found := false

	n := 0
	for i := 0; i < l.nstates; i++ {
		s := l.states[i]
		if s.coord == c {
			found = true
			if s.kind == stateCustom {
				ce = CustomEvent{Kind: CustomRelease, Value: s.custom}
			}
			continue
		}
		l.states[n] = s
		n++
	}
	l.nstates = n

	n = 0
	for i := 0; i < l.nstack; i++ {
		e := l.stack[i]
		if e.coord == c && !e.toggled {
			found = true
			continue
		}
		l.stack[n] = e
		n++
	}
	l.nstack = n

	if !found {
		pkg.LogDebug(pkg.ComponentLayout, "release without active state", "coord", c.String())
	}
	return ce
}

func (l *Layout) addState(s activeState) {
	if l.nstates == MaxStates {
		pkg.LogWarn(pkg.ComponentLayout, "active state table full", "coord", s.coord.String())
		return
	}
	l.states[l.nstates] = s
	l.nstates++
}

func (l *Layout) pushLayer(e layerEntry) {
	if l.nstack == MaxLayerStack {
		pkg.LogWarn(pkg.ComponentLayout, "layer stack full", "layer", e.layer)
		return
	}
	l.stack[l.nstack] = e
	l.nstack++
}

func (l *Layout) removeLayer(i int) {
	copy(l.stack[i:l.nstack], l.stack[i+1:l.nstack])
	l.nstack--
}

// Keycodes yields the active keycodes in activation order.
func (l *Layout) Keycodes() iter.Seq[report.Keycode] {
	return func(yield func(report.Keycode) bool) {
		for i := 0; i < l.nstates; i++ {
			if l.states[i].kind != stateKey {
				continue
			}
			if !yield(l.states[i].key) {
				return
			}
		}
	}
}

// ActiveLayers yields the effective layers from highest to lowest
// priority: active tri-state layers, the layer stack top-down, then the
// base layer.
func (l *Layout) ActiveLayers() iter.Seq[uint8] {
	return func(yield func(uint8) bool) {
		for i := 0; i < l.ntri; i++ {
			ts := l.tri[i]
			if l.onStack(ts.A) && l.onStack(ts.B) {
				if !yield(ts.Layer) {
					return
				}
			}
		}
		for i := l.nstack - 1; i >= 0; i-- {
			if !yield(l.stack[i].layer) {
				return
			}
		}
		yield(l.base)
	}
}

// CurrentLayer returns the highest-priority active layer.
func (l *Layout) CurrentLayer() uint8 {
	for layer := range l.ActiveLayers() {
		return layer
	}
	return l.base
}

// Pending returns the coordinate and start tick of the unresolved
// hold-tap, if any.
func (l *Layout) Pending() (event.Coordinate, uint32, bool) {
	return l.wait.coord, l.wait.start, l.pending
}

// Queued returns the number of events waiting to be processed.
func (l *Layout) Queued() int { return l.qlen }

// KeyState returns the resolution state of c.
func (l *Layout) KeyState(c event.Coordinate) KeyState {
	if l.pending && l.wait.coord == c {
		return KeyHoldTapPending
	}
	for i := 0; i < l.nstates; i++ {
		if l.states[i].coord == c {
			return l.states[i].origin.keyState()
		}
	}
	for i := 0; i < l.nstack; i++ {
		if l.stack[i].coord == c && !l.stack[i].toggled {
			return l.stack[i].origin.keyState()
		}
	}
	return KeyIdle
}
