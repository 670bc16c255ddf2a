package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"opsconsole/internal/account/models"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/tracker"
)

// Group administration labels recorded in the audit log.
const (
	LabelCreateGroup = "Criar grupo"
	LabelDeleteGroup = "Excluir grupo"
)

const trackerServiceLabel = "Atlassian"

// GroupAdmin is the tracker's group and license surface.
type GroupAdmin interface {
	ListGroups(ctx context.Context) ([]tracker.Group, error)
	CreateGroup(ctx context.Context, name string) (*tracker.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	LicenseUsage(ctx context.Context) ([]tracker.LicenseUsage, error)
}

// Groups wraps tracker group administration with auditing of the mutating calls.
type Groups struct {
	admin    GroupAdmin
	recorder Recorder
	logger   *slog.Logger
}

func NewGroups(admin GroupAdmin, recorder Recorder, logger *slog.Logger) (*Groups, error) {
	if admin == nil {
		return nil, errors.New("group admin is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Groups{admin: admin, recorder: recorder, logger: logger}, nil
}

func (g *Groups) List(ctx context.Context) ([]tracker.Group, error) {
	return g.admin.ListGroups(ctx)
}

func (g *Groups) LicenseUsage(ctx context.Context) ([]tracker.LicenseUsage, error) {
	return g.admin.LicenseUsage(ctx)
}

// Create creates a group on behalf of actor.
func (g *Groups) Create(ctx context.Context, actor, name string) (*tracker.Group, error) {
	group, err := g.admin.CreateGroup(ctx, name)
	g.auditResult(ctx, actor, name, LabelCreateGroup, err)
	return group, err
}

// Delete removes a group on behalf of actor.
func (g *Groups) Delete(ctx context.Context, actor, groupID string) error {
	err := g.admin.DeleteGroup(ctx, groupID)
	g.auditResult(ctx, actor, groupID, LabelDeleteGroup, err)
	return err
}

func (g *Groups) auditResult(ctx context.Context, actor, target, label string, err error) {
	if err != nil {
		g.logger.WarnContext(ctx, "group administration failed", "action", label, "target", target, "error", err)
		if !providers.ReachedUpstream(err) {
			return
		}
		label += FailedSuffix
	}
	_ = g.recorder.Record(context.WithoutCancel(ctx), models.AuditLogEntry{
		ActorName:        actor,
		TargetIdentifier: target,
		ServiceLabel:     trackerServiceLabel,
		ActionLabel:      label,
	})
}
