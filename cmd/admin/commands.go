package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/database"
	"github.com/qs3c/prep_go_server/internal/repository"
	"github.com/qs3c/prep_go_server/internal/service"
)

type storeOpener func(configPath string) (*gorm.DB, *config.Config, error)

func openStore(configPath string) (*gorm.DB, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return db, cfg, nil
}

func newRootCmd(open storeOpener) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "prep-admin",
		Short:        "账户运维工具",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "配置文件路径")

	rootCmd.AddCommand(
		newSetRoleCmd(open, &configPath),
		newResetCreditsCmd(open, &configPath),
	)
	return rootCmd
}

// set-role --email x --role admin|student
func newSetRoleCmd(open storeOpener, configPath *string) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "按邮箱设置用户角色",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := open(*configPath)
			if err != nil {
				return err
			}

			adminService := service.NewAdminService(
				repository.NewUserRepository(db),
				repository.NewTaskRepository(db),
				repository.NewPaymentRepository(db),
				repository.NewCreditRepository(db),
			)
			if err := adminService.SetRole(email, role); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "role of %s set to %s\n", email, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "目标用户邮箱")
	cmd.Flags().StringVar(&role, "role", "", "student 或 admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// reset-credits 立即为所有有效高级会员重置额度
func newResetCreditsCmd(open storeOpener, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-credits",
		Short: "立即重置全部高级会员额度",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, cfg, err := open(*configPath)
			if err != nil {
				return err
			}

			userRepo := repository.NewUserRepository(db)
			credits := service.NewCreditService(db, userRepo, repository.NewCreditRepository(db), cfg, nil, nil)
			n, err := credits.ResetAll()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "credits reset for %d premium users\n", n)
			return nil
		},
	}
}
