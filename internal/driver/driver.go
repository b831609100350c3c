package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/karaokepi/internal/config"
	"github.com/five82/karaokepi/internal/sysexec"
)

// ServiceController is the subset of service.Service used for teardown.
type ServiceController interface {
	Stop() error
	Uninstall() error
}

// Manager installs and removes the driver.
type Manager struct {
	Config config.DriverConfig
	Runner sysexec.Runner
	Fs     afero.Fs
	// Service opens the system service by name. Defaults to kardianos/service.
	Service func(name string) (ServiceController, error)
}

// Install clones the driver repo, or updates an existing checkout, and runs
// its installer with sudo.
func (m *Manager) Install(ctx context.Context) error {
	dir := m.Config.Dir
	exists, err := afero.DirExists(m.fs(), filepath.Join(dir, ".git"))
	if err != nil {
		return fmt.Errorf("inspect %s: %w", dir, err)
	}
	if exists {
		log.Infof("updating driver checkout in %s", dir)
		if err := m.Runner.Run(ctx, sysexec.Command{Name: "git", Args: []string{"-C", dir, "pull", "--ff-only"}}); err != nil {
			return fmt.Errorf("update driver repo: %w", err)
		}
	} else {
		log.Infof("cloning %s into %s", m.Config.Repo, dir)
		if err := m.Runner.Run(ctx, sysexec.Command{Name: "git", Args: []string{"clone", m.Config.Repo, dir}}); err != nil {
			return fmt.Errorf("clone driver repo: %w", err)
		}
	}
	if err := m.Runner.Run(ctx, sysexec.Command{Name: "sudo", Args: []string{"./install.sh"}, Dir: dir}); err != nil {
		return fmt.Errorf("run driver installer: %w", err)
	}
	return nil
}

// Remove stops and unregisters the service, then deletes the driver files.
// Every failure is collected; nothing stops the teardown early.
func (m *Manager) Remove(ctx context.Context) error {
	var errs error
	if err := m.stopService(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}

	var targets []string
	for _, pattern := range m.Config.Files {
		matches, err := afero.Glob(m.fs(), pattern)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("expand %s: %w", pattern, err))
			continue
		}
		targets = append(targets, matches...)
	}
	if len(targets) == 0 {
		log.Info("no driver files found")
		return errs
	}
	args := append([]string{"rm", "-rf", "--"}, targets...)
	if err := m.Runner.Run(ctx, sysexec.Command{Name: "sudo", Args: args}); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("remove driver files: %w", err))
	}
	return errs
}

func (m *Manager) stopService(ctx context.Context) error {
	name := strings.TrimSuffix(m.Config.Service, ".service")
	open := m.Service
	if open == nil {
		open = openSystemService
	}

	svc, err := open(name)
	if err == nil {
		stopErr := svc.Stop()
		if stopErr != nil {
			log.WithError(stopErr).Debugf("stop %s via service manager", name)
		}
		if err = svc.Uninstall(); err == nil {
			log.Infof("service %s stopped and removed", name)
			return nil
		}
	}
	log.WithError(err).Debugf("service manager could not remove %s, falling back to systemctl", name)

	// Unprivileged runs cannot touch system units directly.
	var errs error
	for _, action := range []string{"stop", "disable"} {
		cmd := sysexec.Command{Name: "sudo", Args: []string{"systemctl", action, name + ".service"}}
		if err := m.Runner.Run(ctx, cmd); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("systemctl %s %s: %w", action, name, err))
		}
	}
	return errs
}

func (m *Manager) fs() afero.Fs {
	if m.Fs == nil {
		return afero.NewOsFs()
	}
	return m.Fs
}

type noopProgram struct{}

func (noopProgram) Start(service.Service) error { return nil }
func (noopProgram) Stop(service.Service) error  { return nil }

func openSystemService(name string) (ServiceController, error) {
	svc, err := service.New(noopProgram{}, &service.Config{Name: name})
	if err != nil {
		return nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return svc, nil
}
