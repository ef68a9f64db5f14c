package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags "-X" 注入
var Version = "dev"

// ServeFunc 加载 configFile 并运行服务，阻塞到 ctx 取消
type ServeFunc func(ctx context.Context, configFile string) error

// NewCommand 构造服务的根命令：直接执行或 serve 子命令都启动服务
func NewCommand(use, short string, serve ServeFunc) *cobra.Command {
	var configFile string
	runE := func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context(), configFile)
	}

	root := &cobra.Command{
		Use:           use,
		Short:         short,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file (default: ./config.yaml or ./configs/config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runE,
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), use, Version)
		},
	})
	return root
}
