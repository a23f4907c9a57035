package main

import (
	"github.com/spf13/cobra"

	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
	"github.com/yaegashi/clusterops/adapters/deploy/sshdeploy"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/usecase/controller"
	"github.com/yaegashi/clusterops/usecase/instance"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
	"github.com/yaegashi/clusterops/usecase/provider"
	"github.com/yaegashi/clusterops/usecase/workergroup"
)

// driverEnv returns the process-level context handed to provider drivers.
func driverEnv(cmd *cobra.Command) providerdrv.Env {
	return providerdrv.Env{
		BaseDir: opsEnv.OpsDir,
		Version: version,
		Logger:  logging.FromContext(cmd.Context()),
	}
}

// buildDeployer creates the SSH deployer from the deploy section of config.yml.
func buildDeployer(cmd *cobra.Command) *sshdeploy.Deployer {
	d := opsEnv.Deploy
	cfg := sshdeploy.Config{
		ControllerCommand: d.ControllerCommand,
		EngineConfigPath:  d.EngineConfigPath,
		ClientConfigPath:  d.ClientConfigPath,
		WorkerConfigPath:  d.WorkerConfigPath,
		WorkerKeyPath:     d.WorkerKeyPath,
		WorkerCommand:     d.WorkerCommand,
		DialRetries:       d.DialRetries,
		RetryDelay:        d.RetryDelay,
	}
	return sshdeploy.New(cfg, opsEnv.OpsDir, logging.FromContext(cmd.Context()))
}

// buildEngine creates the reconciliation engine over the provider drivers.
func buildEngine(cmd *cobra.Command, repos *domain.Repositories) *lifecycle.Engine {
	port := providerdrv.GetInstancePort(repos.Provider, driverEnv(cmd))
	return lifecycle.NewEngine(repos, port, logging.FromContext(cmd.Context()))
}

func buildCoordinator(cmd *cobra.Command) *lifecycle.Coordinator {
	return lifecycle.NewCoordinator(opsEnv.Deploy.Parallelism, logging.FromContext(cmd.Context()))
}

// buildProviderUseCase creates provider use case with required repositories and ports.
func buildProviderUseCase(cmd *cobra.Command) (*provider.UseCase, error) {
	repos, err := buildRepos(cmd)
	if err != nil {
		return nil, err
	}
	return &provider.UseCase{
		Repos: &provider.Repos{
			Provider:    repos.Provider,
			Controller:  repos.Controller,
			WorkerGroup: repos.WorkerGroup,
			Instance:    repos.Instance,
		},
		ProviderPort: providerdrv.GetProviderPort(driverEnv(cmd)),
		Drivers:      providerdrv.Names(),
		Logger:       logging.FromContext(cmd.Context()),
	}, nil
}

// buildControllerUseCase creates controller use case with required repositories and ports.
func buildControllerUseCase(cmd *cobra.Command) (*controller.UseCase, error) {
	repos, err := buildRepos(cmd)
	if err != nil {
		return nil, err
	}
	deployer := buildDeployer(cmd)
	return &controller.UseCase{
		Repos: &controller.Repos{
			Provider:    repos.Provider,
			Controller:  repos.Controller,
			WorkerGroup: repos.WorkerGroup,
			Instance:    repos.Instance,
		},
		Engine:      buildEngine(cmd, repos),
		Coordinator: buildCoordinator(cmd),
		DeployPort:  deployer,
		ShellPort:   deployer,
		Logger:      logging.FromContext(cmd.Context()),
	}, nil
}

// buildWorkerGroupUseCase creates worker group use case with required repositories and ports.
func buildWorkerGroupUseCase(cmd *cobra.Command) (*workergroup.UseCase, error) {
	repos, err := buildRepos(cmd)
	if err != nil {
		return nil, err
	}
	return &workergroup.UseCase{
		Repos: &workergroup.Repos{
			Provider:    repos.Provider,
			Controller:  repos.Controller,
			WorkerGroup: repos.WorkerGroup,
			Instance:    repos.Instance,
		},
		Engine:      buildEngine(cmd, repos),
		Coordinator: buildCoordinator(cmd),
		DeployPort:  buildDeployer(cmd),
		Logger:      logging.FromContext(cmd.Context()),
	}, nil
}

// buildInstanceUseCase creates instance record use case.
func buildInstanceUseCase(cmd *cobra.Command) (*instance.UseCase, error) {
	repos, err := buildRepos(cmd)
	if err != nil {
		return nil, err
	}
	return &instance.UseCase{
		Repos:  &instance.Repos{Instance: repos.Instance},
		Engine: buildEngine(cmd, repos),
		Logger: logging.FromContext(cmd.Context()),
	}, nil
}
