package serve

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/flaxkv-go/flaxkv/cmd/util"
	"github.com/flaxkv-go/flaxkv/internal/logging"
	"github.com/flaxkv-go/flaxkv/lib/store"
	"github.com/flaxkv-go/flaxkv/rpc/common"
	"github.com/flaxkv-go/flaxkv/rpc/serializer"
	"github.com/flaxkv-go/flaxkv/rpc/server"
	"github.com/flaxkv-go/flaxkv/rpc/transport"
	httptransport "github.com/flaxkv-go/flaxkv/rpc/transport/http"
	"github.com/flaxkv-go/flaxkv/rpc/transport/tcp"
	"github.com/flaxkv-go/flaxkv/rpc/transport/unix"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	storeCmdConfig = store.Config{}

	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start the flaxkv server",
		Long:    `Start the flaxkv server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is FLAXKV_<flag> (e.g. FLAXKV_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// store flags
	key := "path"
	ServeCmd.PersistentFlags().String(key, "data/flaxkv", cmdUtil.WrapString("Directory the store persists its engine files to"))

	key = "engine"
	ServeCmd.PersistentFlags().String(key, string(store.EngineMmapBTree), cmdUtil.WrapString("Engine backing the store (mmap_btree, lsm)"))

	key = "flush-interval"
	ServeCmd.PersistentFlags().Int(key, 200, cmdUtil.WrapString("Maximum time in milliseconds a write may sit in the overlay before being flushed to the engine"))

	key = "high-water"
	ServeCmd.PersistentFlags().Int(key, 10000, cmdUtil.WrapString("Number of pending writes in the overlay that forces an immediate flush"))

	key = "rebuild"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Truncate any existing database at path before accepting writes"))

	key = "map-size-hint"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Advisory working-set size hint forwarded to the engine"))

	// rpc server flags
	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Per-request timeout in seconds"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. 0.0.0.0:8080, /tmp/flaxkv.sock, ...)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:9090", cmdUtil.WrapString("The address on which the /metrics Prometheus endpoint will listen"))

	key = "transport-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the read/write buffer for the transport (in KB, ignored for http)"))

	key = "transport-max-workers"
	ServeCmd.PersistentFlags().Int(key, 32, cmdUtil.WrapString("Maximum number of concurrent workers per connection (ignored for http)"))
}

// processConfig reads the configuration from the command line flags and
// environment variables and converts them into the store and server
// configuration.
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	storeCmdConfig.Path = viper.GetString("path")
	storeCmdConfig.EngineKind = store.EngineKind(viper.GetString("engine"))
	storeCmdConfig.FlushInterval = time.Duration(viper.GetInt("flush-interval")) * time.Millisecond
	storeCmdConfig.HighWaterW = viper.GetInt("high-water")
	storeCmdConfig.Rebuild = viper.GetBool("rebuild")
	storeCmdConfig.MapSizeHint = viper.GetInt("map-size-hint")

	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		BufferSize:        uint64(viper.GetInt("transport-buffer")) * 1024,
		MaxWorkersPerConn: viper.GetInt("transport-max-workers"),
		WriteBufferSize:   viper.GetInt("transport-buffer") * 1024,
		ReadBufferSize:    viper.GetInt("transport-buffer") * 1024,
	}

	return nil
}

// run starts the flaxkv server
func run(_ *cobra.Command, _ []string) error {
	log := common.NewComponentLogger("cmd/serve", common.ParseLogLevel(serveCmdConfig.LogLevel))

	storeCmdConfig.Logger = common.NewComponentLogger("store", common.ParseLogLevel(serveCmdConfig.LogLevel))

	st, err := store.Open(storeCmdConfig)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	// parse the serializer
	var s serializer.IRPCSerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	case "binary":
		s = serializer.NewBinarySerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = httptransport.NewHttpServerTransport(log)
	case "tcp":
		t = tcp.NewTCPServerTransport(int(serveCmdConfig.Transport.BufferSize), serveCmdConfig.Transport.MaxWorkersPerConn, log)
	case "unix":
		t = unix.NewUnixServerTransport(int(serveCmdConfig.Transport.BufferSize), serveCmdConfig.Transport.MaxWorkersPerConn, log)
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	go serveMetrics(viper.GetString("metrics-endpoint"), log)

	serv := server.NewRPCServer(st, *serveCmdConfig, t, s, log)

	return serv.Serve()
}

// serveMetrics starts a plain HTTP server exposing the process's
// Prometheus metrics on /metrics.
func serveMetrics(endpoint string, log logging.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		vmetrics.WritePrometheus(w, true)
	})

	log.Infof("metrics endpoint listening on %s", endpoint)
	if err := http.ListenAndServe(endpoint, mux); err != nil {
		log.Errorf("metrics server stopped: %v", err)
	}
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("flaxkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
