package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1/comm/mqtt"
	"github.com/robotalks/perictl/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/perictl/"
)

func init() {
	if val := os.Getenv("PERICTL_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func describe(topic string, payload []byte) string {
	if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
		if len(payload) == 0 {
			return fmt.Sprintf("%s: offline", topic)
		}
		return fmt.Sprintf("%s: %s", topic, string(payload))
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		return fmt.Sprintf("%s: bad message: %v", topic, err)
	}
	msg, err := typed.Decode()
	if err != nil {
		return fmt.Sprintf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
	}
	return fmt.Sprintf("%s: #%d [%s] %s", topic, typed.Sequence,
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		msg.(msgs.SerializableMessage).Serializable().String())
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		log.Println(describe(topic, payload))
	}))

	err = fx.NewRunner().HandleSignals().Go(fx.RunnableFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, q, func() error {
			<-ctx.Done()
			return nil
		})
	})).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
