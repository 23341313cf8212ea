package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/microdev-go/microserver.go/pkg/lineproto"
)

// DeviceRef identifies a device on the broker.
type DeviceRef struct {
	// Type is the device type (e.g. "led", "meteo").
	Type string
	// ID is the unique ID of the device.
	ID string
}

// Name retrieves the topic path segment for the ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates the ref is complete.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// MachineID retrieves the unique ID identifying this host, used as the
// default device ID.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	return id
}

// Meta describes a device in its retained announce message.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Bridge exposes a line handler over MQTT. It announces the device on
// <type>/<id>/meta (retained), feeds every payload received on
// <type>/<id>/cmd to the handler as one line, and publishes replies on
// <type>/<id>/stat. The announce message is cleared by the broker will
// and on shutdown.
type Bridge struct {
	Queue   *Queue
	Ref     DeviceRef
	Handler lineproto.Handler

	metaJSON []byte
}

// NewBridge creates a Bridge for the given broker URL.
func NewBridge(brokerURL string, ref DeviceRef, meta Meta, handler lineproto.Handler) (*Bridge, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("microserver:" + ref.Name())
	}
	b := &Bridge{
		Queue:    NewQueue(opts, topicPrefix),
		Ref:      ref,
		Handler:  handler,
		metaJSON: metaJSON,
	}
	b.Queue.OnConnect = func(*Queue) { b.announce() }
	b.Queue.Sub(ref.Name()+"/cmd", b.handleCmd)
	return b, nil
}

// Run implements framework.Runnable: it keeps the bridge connected until
// the context is canceled, then withdraws the announce message.
func (b *Bridge) Run(ctx context.Context) error {
	b.Queue.Connect()
	<-ctx.Done()
	b.Queue.PubWith(b.Ref.Name()+"/meta", nil, 1, true)
	b.Queue.Close()
	return nil
}

func (b *Bridge) announce() {
	b.Queue.PubWith(b.Ref.Name()+"/meta", b.metaJSON, 1, true)
}

func (b *Bridge) handleCmd(topic string, payload []byte) {
	line := strings.TrimRight(string(payload), "\r\n")
	reply, ok := b.Handler.HandleLine(line)
	if !ok {
		return
	}
	glog.V(1).Infof("mqtt cmd %q -> %q", line, reply)
	b.Queue.Pub(b.Ref.Name()+"/stat", []byte(reply))
}
