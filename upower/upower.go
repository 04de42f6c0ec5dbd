// Package upower provides a wattz.Source backed by the UPower system
// service over D-Bus.
//
// Status comes from the display device's State property, change
// notifications from org.freedesktop.DBus.Properties.PropertiesChanged, and
// liveness loss from NameOwnerChanged: when org.freedesktop.UPower loses
// its bus name, the daemon behind the connection is gone.
package upower

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/zoobzio/wattz"
)

const (
	busName     = "org.freedesktop.UPower"
	deviceIface = "org.freedesktop.UPower.Device"
	propsIface  = "org.freedesktop.DBus.Properties"
	dbusIface   = "org.freedesktop.DBus"

	// DefaultDevicePath is the UPower composite display device, which
	// aggregates all batteries into one user-facing state.
	DefaultDevicePath = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
)

// Battery state values from the UPower D-Bus API.
const (
	stateUnknown          uint32 = 0
	stateCharging         uint32 = 1
	stateDischarging      uint32 = 2
	stateEmpty            uint32 = 3
	stateFullyCharged     uint32 = 4
	statePendingCharge    uint32 = 5
	statePendingDischarge uint32 = 6
)

// MapState maps a UPower device state to a wattz.Status. Pending states
// mean a charger is connected but no charge is flowing, which is exactly
// the transient reading the monitor debounces.
func MapState(v uint32) wattz.Status {
	switch v {
	case stateCharging:
		return wattz.StatusCharging
	case stateFullyCharged:
		return wattz.StatusFull
	case stateDischarging, stateEmpty:
		return wattz.StatusDischarging
	case statePendingCharge, statePendingDischarge:
		return wattz.StatusNotCharging
	default:
		return wattz.StatusUnknown
	}
}

// Source connects to UPower on the system bus.
type Source struct {
	path dbus.ObjectPath
	bus  func() (*dbus.Conn, error)
}

// Option configures a Source.
type Option func(*Source)

// WithDevicePath overrides the device object path, e.g. to track a single
// battery instead of the composite display device.
func WithDevicePath(path dbus.ObjectPath) Option {
	return func(s *Source) {
		s.path = path
	}
}

// WithBus overrides how the D-Bus connection is established. Useful for
// tests and for session-bus setups.
func WithBus(bus func() (*dbus.Conn, error)) Option {
	return func(s *Source) {
		s.bus = bus
	}
}

// New creates a Source for the UPower display device.
func New(opts ...Option) *Source {
	s := &Source{
		path: DefaultDevicePath,
		bus:  systemBus,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// systemBus opens a private system bus connection so Close does not tear
// down a connection shared with the rest of the process.
func systemBus() (*dbus.Conn, error) {
	bus, err := dbus.SystemBusPrivate()
	if err != nil {
		return nil, err
	}
	if err := bus.Auth(nil); err != nil {
		bus.Close()
		return nil, err
	}
	if err := bus.Hello(); err != nil {
		bus.Close()
		return nil, err
	}
	return bus, nil
}

// Open implements wattz.Source. It fails when the bus is unreachable or
// UPower is not currently on it.
func (s *Source) Open(_ context.Context) (wattz.Conn, error) {
	bus, err := s.bus()
	if err != nil {
		return nil, fmt.Errorf("connect bus: %w", err)
	}

	// Verify the daemon is actually present; a bus connection alone says
	// nothing about UPower.
	var owner string
	if err := bus.BusObject().Call(dbusIface+".GetNameOwner", 0, busName).Store(&owner); err != nil {
		bus.Close()
		return nil, fmt.Errorf("upower not available: %w", err)
	}

	return &conn{
		bus:  bus,
		obj:  bus.Object(busName, s.path),
		path: s.path,
		quit: make(chan struct{}),
	}, nil
}

// conn is a live binding to the UPower daemon.
type conn struct {
	bus  *dbus.Conn
	obj  dbus.BusObject
	path dbus.ObjectPath

	mu       sync.Mutex
	listener wattz.Listener
	signals  chan *dbus.Signal
	closed   bool
	quit     chan struct{}
}

// Status implements wattz.Conn, reading the device State property.
func (c *conn) Status(_ context.Context) (wattz.Status, error) {
	v, err := c.obj.GetProperty(deviceIface + ".State")
	if err != nil {
		return wattz.StatusUnknown, fmt.Errorf("get state: %w", err)
	}
	var state uint32
	if err := v.Store(&state); err != nil {
		return wattz.StatusUnknown, fmt.Errorf("decode state: %w", err)
	}
	return MapState(state), nil
}

// Subscribe implements wattz.Conn, registering signal matches for property
// changes on the device and ownership changes of the UPower bus name.
func (c *conn) Subscribe(l wattz.Listener) error {
	c.mu.Lock()
	if c.listener != nil {
		c.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	c.listener = l
	c.mu.Unlock()

	if err := c.bus.AddMatchSignal(
		dbus.WithMatchObjectPath(c.path),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("match properties: %w", err)
	}
	if err := c.bus.AddMatchSignal(
		dbus.WithMatchInterface(dbusIface),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, busName),
	); err != nil {
		return fmt.Errorf("match name owner: %w", err)
	}

	ch := make(chan *dbus.Signal, 16)
	c.mu.Lock()
	c.signals = ch
	c.mu.Unlock()
	c.bus.Signal(ch)

	go c.pump(ch)
	return nil
}

func (c *conn) pump(ch chan *dbus.Signal) {
	for {
		select {
		case <-c.quit:
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			switch sig.Name {
			case propsIface + ".PropertiesChanged":
				c.propertiesChanged(sig)
			case dbusIface + ".NameOwnerChanged":
				if nameLost(sig) {
					if l := c.active(); l != nil {
						l.ConnectionLost(c)
					}
					return
				}
			}
		}
	}
}

func (c *conn) propertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	iface, _ := sig.Body[0].(string)
	if iface != deviceIface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	v, ok := changed["State"]
	if !ok {
		return
	}
	var state uint32
	if err := v.Store(&state); err != nil {
		return
	}
	if l := c.active(); l != nil {
		l.StatusChanged(MapState(state))
	}
}

// nameLost reports whether a NameOwnerChanged signal says the UPower name
// no longer has an owner.
func nameLost(sig *dbus.Signal) bool {
	if len(sig.Body) != 3 {
		return false
	}
	name, _ := sig.Body[0].(string)
	newOwner, _ := sig.Body[2].(string)
	return name == busName && newOwner == ""
}

func (c *conn) active() wattz.Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.listener
}

// Unsubscribe implements wattz.Conn, removing the signal matches.
func (c *conn) Unsubscribe() error {
	c.mu.Lock()
	c.listener = nil
	ch := c.signals
	c.signals = nil
	c.mu.Unlock()

	if ch != nil {
		c.bus.RemoveSignal(ch)
	}

	var first error
	if err := c.bus.RemoveMatchSignal(
		dbus.WithMatchObjectPath(c.path),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		first = err
	}
	if err := c.bus.RemoveMatchSignal(
		dbus.WithMatchInterface(dbusIface),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, busName),
	); err != nil && first == nil {
		first = err
	}
	return first
}

// Close implements wattz.Conn, closing the private bus connection.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.quit)
	return c.bus.Close()
}
