package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/lock"
	"github.com/roach88/postbot/internal/session"
)

// UnlockOptions holds flags for the unlock command.
type UnlockOptions struct {
	*RootOptions
	Force bool
}

// UnlockResult reports what unlock did.
type UnlockResult struct {
	Lock    LockStatus `json:"lock"`
	Removed bool       `json:"removed"`
}

func (r UnlockResult) String() string {
	switch {
	case r.Removed:
		return fmt.Sprintf("Removed lock %s (was %s)", r.Lock.Path, r.Lock)
	case !r.Lock.Held:
		return fmt.Sprintf("Lock %s is free", r.Lock.Path)
	default:
		return fmt.Sprintf("Lock %s is %s", r.Lock.Path, r.Lock)
	}
}

// NewUnlockCommand creates the unlock command.
func NewUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UnlockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Remove a stale lock marker",
		Long: `Remove the lock marker left behind by a run that crashed or was killed.

Locks never expire on their own. Without --force the marker is only
inspected. Removing the marker of a run that is still active lets a second
run start alongside it, so check the pid first.

Example:
  postbot unlock
  postbot unlock --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnlock(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "remove the marker")

	return cmd
}

func runUnlock(opts *UnlockOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	path := a.cfg.Lock.Path
	info, err := lock.Inspect(path, a.now())
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeIO, "failed to inspect lock", err)
	}
	result := UnlockResult{Lock: newLockStatus(path, info)}

	if !info.Held {
		return a.out.Success(result)
	}
	if !opts.Force {
		_ = a.out.Error(session.OutcomeBusy.String(), fmt.Sprintf("lock %s is %s; rerun with --force to remove it", path, result.Lock), result)
		return NewExitError(ExitBusy, "lock held")
	}

	removed, err := lock.ForceRemove(path)
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeIO, "failed to remove lock", err)
	}
	result.Removed = removed
	a.logger.Warn("lock removed by operator", "path", path, "pid", info.PID, "age", info.Age)
	return a.out.Success(result)
}
