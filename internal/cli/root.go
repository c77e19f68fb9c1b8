package cli

import (
	"github.com/bookstore-next/internal/app"
	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/provider"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

// NewRootCommand 运维命令入口
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "bookstorectl",
		Short:         "Operate the bookstore checkout and inventory engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.cfg = config.LoadFile(opts.configPath)
			logger.Init(opts.cfg.Server.Mode, opts.cfg.Log.ToLoggerOptions())
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default: ./config.yml)")

	root.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newPurchaseOrderCommand(opts),
		newSweepCommand(opts),
		newTokenCommand(opts),
		newAuthzCommand(opts),
	)
	return root
}

// openContainer 初始化数据库并构建依赖容器，调用方负责 Close
func (o *rootOptions) openContainer() (*provider.Container, error) {
	if err := app.InitDatabase(o.cfg); err != nil {
		return nil, err
	}
	return provider.NewContainer(o.cfg)
}
