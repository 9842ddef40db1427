package mqtt

import (
	"context"
	"encoding/json"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/comm"
)

// ClientIDPrefix prefixes the default MQTT client ID of controllers.
const ClientIDPrefix = "perictl:"

// Registrar implements l1.Registrar using MQTT.
// The controller metadata is retained on TYPE/ID/meta and cleared
// by the will message when the controller goes away.
type Registrar struct {
	PubSub *PubSub
	Info   l1.ControllerInfo

	metaJSON  []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, err := ParseURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := info.Ref.Name() + "/" + TopicMeta
	opts.Client.SetBinaryWill(opts.TopicPrefix+metaTopic, nil, 1, true)
	if opts.Client.ClientID == "" {
		opts.Client.SetClientID(ClientIDPrefix + info.Ref.Name())
	}
	r := &Registrar{
		PubSub:   New(opts),
		Info:     info,
		metaJSON: meta,
	}
	r.PubSub.OnConnect = func(q *PubSub) {
		q.PubWith(metaTopic, r.metaJSON, 1, true)
	}
	r.registrar.Init(NewPacketReadWriter(r.PubSub).ForController(info.Ref))
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	if !r.PubSub.Client.IsConnected() {
		return nil
	}
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.PubSub.Connect()
	<-ctx.Done()
	if r.PubSub.Client.IsConnected() {
		r.PubSub.PubWith(r.Info.Ref.Name()+"/"+TopicMeta, nil, 1, true).Wait()
	}
	r.PubSub.Close()
	return nil
}
