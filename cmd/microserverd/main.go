package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/microdev-go/microserver.go/pkg/bridge/mqtt"
	"github.com/microdev-go/microserver.go/pkg/device"
	"github.com/microdev-go/microserver.go/pkg/device/ctlproto"
	"github.com/microdev-go/microserver.go/pkg/framework"
	"github.com/microdev-go/microserver.go/pkg/httpd"
	"github.com/microdev-go/microserver.go/pkg/lineproto"
	"github.com/microdev-go/microserver.go/pkg/netinfo"
	"github.com/microdev-go/microserver.go/pkg/wsserver"
)

var (
	httpPort    = httpd.DefaultPort
	wsPort      = wsserver.DefaultPort
	bindAddr    = wsserver.DefaultAddr
	password    = ""
	wwwRoot     = "www"
	defaultRes  = httpd.DefaultResource
	mqttURL     = ""
	deviceType  = "env"
	deviceID    = ""
	networksCfg = "networks.json"
)

func init() {
	if val := os.Getenv("MICROSERVER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	if val := os.Getenv("MICROSERVER_PASSWORD"); val != "" {
		password = val
	}
	if val := os.Getenv("MICROSERVER_WWW"); val != "" {
		wwwRoot = val
	}
	flag.IntVar(&httpPort, "http-port", httpPort, "HTTP file server port.")
	flag.IntVar(&wsPort, "ws-port", wsPort, "Websocket control server port.")
	flag.StringVar(&bindAddr, "addr", bindAddr, "Bind address.")
	flag.StringVar(&password, "password", password, "Websocket access token; empty disables the check.")
	flag.StringVar(&wwwRoot, "www", wwwRoot, "Root directory of static resources.")
	flag.StringVar(&defaultRes, "default", defaultRes, "Resource served for \"/\".")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL; empty disables the bridge.")
	flag.StringVar(&deviceType, "device-type", deviceType, "Device type for MQTT topics.")
	flag.StringVar(&deviceID, "device-id", deviceID, "Device ID for MQTT topics; defaults to the machine ID.")
	flag.StringVar(&networksCfg, "networks", networksCfg, "Preferred-network list (JSON).")
}

func main() {
	flag.Parse()

	pref, err := netinfo.LoadPreferred(networksCfg)
	if err != nil {
		glog.Exitf("load %s: %v", networksCfg, err)
	}

	handler := &ctlproto.EnvHandler{LED: &device.SimLED{}, Sensor: device.NewSimSensor()}

	wss := wsserver.NewServer()
	wss.Port = wsPort
	wss.Addr = bindAddr
	wss.Password = password
	wss.Accept = func(addr string) (lineproto.Handler, error) { return handler, nil }
	wss.OnClose = func(addr string) { glog.Infof("session closed: %s", addr) }

	files := httpd.NewServer(os.DirFS(wwwRoot))
	files.Port = httpPort
	files.Default = defaultRes

	runner := framework.NewRunner().HandleSignals()
	runner.Go(
		framework.RunFunc(func(ctx context.Context) error {
			uri, err := wss.Start()
			if err != nil {
				return err
			}
			defer wss.Stop()
			glog.Infof("control channel at %s", advertiseURI("ws", uri, pref, wss.ListenAddr()))
			<-ctx.Done()
			return ctx.Err()
		}),
		framework.RunFunc(func(ctx context.Context) error {
			uri, err := files.Start()
			if err != nil {
				return err
			}
			defer files.Stop()
			glog.Infof("point your browser at %s", advertiseURI("http", uri, pref, files.ListenAddr()))
			<-ctx.Done()
			return ctx.Err()
		}),
	)

	if mqttURL != "" {
		ref := mqtt.DeviceRef{Type: deviceType, ID: deviceID}
		if ref.ID == "" {
			ref.ID = mqtt.MachineID()
		}
		meta := mqtt.Meta{Description: "Environment Microserver"}
		br, err := mqtt.NewBridge(mqttURL, ref, meta, handler)
		if err != nil {
			glog.Exitf("mqtt bridge: %v", err)
		}
		runner.Go(br)
	}

	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}

// advertiseURI rewrites the advertised URI using the preferred-network
// list when one is configured; otherwise the URI reported by the server
// stands.
func advertiseURI(scheme, uri string, pref netinfo.Preferred, addr net.Addr) string {
	if len(pref) == 0 {
		return uri
	}
	ip := pref.PickIP()
	if ip == "" {
		return uri
	}
	port := addr.(*net.TCPAddr).Port
	return scheme + "://" + net.JoinHostPort(ip, strconv.Itoa(port))
}
