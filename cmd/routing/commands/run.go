package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/routing/src/config"
	"github.com/mosaicnetworks/routing/src/kv"
	"github.com/mosaicnetworks/routing/src/net"
	"github.com/mosaicnetworks/routing/src/node"
	"github.com/mosaicnetworks/routing/src/peers"
	"github.com/mosaicnetworks/routing/src/service"
	"github.com/mosaicnetworks/routing/src/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRunCmd returns the command that starts a routing node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runRouting,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runRouting(cmd *cobra.Command, args []string) error {
	conf := &_config.Routing
	logger := conf.Logger()

	peerSet, err := loadPeers(conf, logger)
	if err != nil {
		return err
	}

	trans, err := net.NewTCPTransport(
		conf.BindAddr,
		conf.AdvertiseAddr,
		conf.MaxPool,
		conf.TCPTimeout,
		logger,
	)
	if err != nil {
		logger.WithError(err).Error("Cannot create transport")
		return err
	}

	db, err := newStore(conf, logger)
	if err != nil {
		trans.Close()
		logger.WithError(err).Error("Cannot open store")
		return err
	}
	defer db.Close()

	nodeConf := conf.NodeConfig()

	handler := kv.NewHandler(trans.AdvertiseAddr(), peerSet, db, nodeConf)

	n := node.NewNode(nodeConf, handler, trans)

	if !conf.NoService {
		serviceServer := service.NewService(conf.ServiceAddr, n, handler, logger)
		go serviceServer.Serve()
	}

	go logEvents(n.Events(), logger)

	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigintCh
		logger.Debug("Reacting to SIGINT - Shutdown")
		n.Shutdown()
	}()

	n.Run()

	n.Events().Close()

	if conf.SavePeers {
		savePeers(conf, handler, trans.AdvertiseAddr(), logger)
	}

	return nil
}

func loadPeers(conf *config.Config, logger *logrus.Entry) (*peers.PeerSet, error) {
	jsonPeers := peers.NewJSONPeerSet(conf.DataDir)

	peerSet, err := jsonPeers.PeerSet()
	if err != nil {
		logger.WithError(err).Error("Cannot read peers")
		return nil, err
	}

	if peerSet.Len() == 0 {
		logger.WithField("path", jsonPeers.Path()).Warn("No peers, starting alone")
	}

	return peerSet, nil
}

func savePeers(conf *config.Config, handler *kv.Handler, self string, logger *logrus.Entry) {
	jsonPeers := peers.NewJSONPeerSet(conf.DataDir)

	if err := jsonPeers.Write(handler.Peers(), self); err != nil {
		logger.WithError(err).Error("Cannot save peers")
		return
	}

	logger.WithFields(logrus.Fields{
		"path":  jsonPeers.Path(),
		"peers": handler.RoutingTableSize(),
	}).Debug("Saved peers")
}

func newStore(conf *config.Config, logger *logrus.Entry) (store.Store, error) {
	if !conf.Store {
		return store.NewInmemStore(), nil
	}

	return store.NewBadgerStore(conf.DatabaseDir, logger)
}

func logEvents(events *node.EventChannel, logger *logrus.Entry) {
	for {
		ev, err := events.Recv(context.Background())
		if err != nil {
			return
		}

		switch e := ev.(type) {
		case kv.ResponseEvent:
			logger.WithFields(logrus.Fields{
				"response": e.Response.Kind.String(),
				"id":       e.Response.RequestID,
				"name":     e.Response.Name,
				"reason":   e.Response.Reason,
			}).Info("Response")
		case kv.TimeoutEvent:
			logger.WithFields(logrus.Fields{
				"request": e.Request.Kind.String(),
				"id":      e.Request.ID,
				"name":    e.Request.Name,
			}).Warn("Request timed out")
		case kv.PeerEvent:
			logger.WithFields(logrus.Fields{
				"peer":  e.NetAddr,
				"added": e.Added,
			}).Info("Peers changed")
		default:
			logger.WithField("event", ev).Debug("Event")
		}
	}
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.Routing.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.Routing.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Routing.LogFile, "Also write logs to this file")
	cmd.Flags().String("moniker", _config.Routing.Moniker, "Optional name")
	cmd.Flags().Bool("save-peers", _config.Routing.SavePeers, "Write the known peers to peers.json on shutdown")

	// Network
	cmd.Flags().StringP("listen", "l", _config.Routing.BindAddr, "Listen IP:Port for routing node")
	cmd.Flags().StringP("advertise", "a", _config.Routing.AdvertiseAddr, "Advertise IP:Port for routing node")
	cmd.Flags().DurationP("timeout", "t", _config.Routing.TCPTimeout, "TCP Timeout")
	cmd.Flags().Int("max-pool", _config.Routing.MaxPool, "Connection pool size max")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.Routing.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.Routing.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Routing.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.Routing.DatabaseDir, "Dabatabase directory")

	// Node configuration
	cmd.Flags().Duration("request-timeout", _config.Routing.RequestTimeout, "Time to wait for a response")
	cmd.Flags().Int("group-size", _config.Routing.GroupSize, "Number of close nodes a request is sent to")
	cmd.Flags().Int("max-part-len", _config.Routing.MaxPartLen, "Max payload of a message part")
	cmd.Flags().Int("inbox-size", _config.Routing.InboxSize, "Capacity of the inbound message queue")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.Routing.SetDataDir(_config.Routing.DataDir)

	logFields := logrus.Fields{
		"routing.DataDir":        _config.Routing.DataDir,
		"routing.BindAddr":       _config.Routing.BindAddr,
		"routing.AdvertiseAddr":  _config.Routing.AdvertiseAddr,
		"routing.ServiceAddr":    _config.Routing.ServiceAddr,
		"routing.NoService":      _config.Routing.NoService,
		"routing.MaxPool":        _config.Routing.MaxPool,
		"routing.Store":          _config.Routing.Store,
		"routing.LogLevel":       _config.Routing.LogLevel,
		"routing.LogFile":        _config.Routing.LogFile,
		"routing.Moniker":        _config.Routing.Moniker,
		"routing.SavePeers":      _config.Routing.SavePeers,
		"routing.TCPTimeout":     _config.Routing.TCPTimeout,
		"routing.RequestTimeout": _config.Routing.RequestTimeout,
		"routing.GroupSize":      _config.Routing.GroupSize,
		"routing.MaxPartLen":     _config.Routing.MaxPartLen,
		"routing.InboxSize":      _config.Routing.InboxSize,
	}

	if _config.Routing.Store {
		logFields["routing.DatabaseDir"] = _config.Routing.DatabaseDir
	}

	_config.Routing.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/routing.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName) // name of config file (without extension)
	viper.AddConfigPath(_config.Routing.DataDir)  // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Routing.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Routing.Logger().Debugf("No config file found in: %s", _config.Routing.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
