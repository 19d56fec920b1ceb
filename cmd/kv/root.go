package kv

import (
	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/common"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/ValentinKolb/fKV/lib/kvs/cache"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	plog = logger.GetLogger("cli")

	store      kvs.Store
	storeCache *cache.Cache
	storeConf  *common.StoreConfig

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add store flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(execCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupStore opens the store every kv subcommand works on
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf, err := util.GetStoreConfig()
	if err != nil {
		return err
	}
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return err
	}
	plog.Debugf("configuration:%s", conf)

	store, storeCache, err = util.OpenStore(conf)
	if err != nil {
		return err
	}
	storeConf = conf
	return nil
}

// closeStore writes the metrics report and releases the store
func closeStore(_ *cobra.Command, _ []string) error {
	if store == nil {
		return nil
	}
	store.ReportMetrics()
	return store.Close()
}
