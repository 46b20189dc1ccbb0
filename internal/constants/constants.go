// Package constants provides centralized constant values used throughout KEEL.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by KEEL for organizing data.
const (
	// KeelHome is the hidden directory name where KEEL stores global
	// configuration and logs. It is created in the user's home directory.
	KeelHome = ".keel"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// GitStateDir is the directory name inside .git where KEEL persists
	// repository-scoped state (sessions, backup history, stash metadata).
	GitStateDir = "keel"
)

// File names used by KEEL for repository-scoped state persistence.
const (
	// SessionsFileName stores in-progress branch workflow sessions.
	SessionsFileName = "sessions.json"

	// BackupHistoryFileName stores the persisted backup record history.
	BackupHistoryFileName = "backups.json"

	// StashMetadataFileName stores named stash metadata.
	StashMetadataFileName = "stashes.json"
)

// Log file configuration.
const (
	// CLILogFileName is the rotating CLI log file name under ~/.keel/logs.
	CLILogFileName = "keel.log"

	// LogMaxSizeMB is the maximum log file size before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is how many rotated log files are kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is how long rotated log files are kept.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Timeout configurations for git invocations.
const (
	// DefaultGitTimeout is the default maximum duration for a single git
	// command. Local operations complete well within this bound.
	DefaultGitTimeout = 30 * time.Second

	// DefaultNetworkTimeout is the default maximum duration for git commands
	// that touch the network (push, fetch). These are the slow path and get
	// a larger bound than local operations.
	DefaultNetworkTimeout = 5 * time.Minute
)

// Feature names used as keys in the advanced_features configuration map
// and in the feature registry.
const (
	// FeatureBranchWorkflows is the branch workflow engine feature name.
	FeatureBranchWorkflows = "branch_workflows"

	// FeatureBackupSystem is the smart backup orchestrator feature name.
	FeatureBackupSystem = "backup_system"

	// FeatureHealthDashboard is the repository health analyzer feature name.
	FeatureHealthDashboard = "health_dashboard"

	// FeatureStashManager is the named stash manager feature name.
	FeatureStashManager = "stash_manager"

	// FeatureConflictResolver is the conflict resolution feature name.
	FeatureConflictResolver = "conflict_resolver"
)

// Workflow model names selectable via branch_workflows.default_workflow.
const (
	// WorkflowGitHubFlow is the simple feature-branches-off-main model.
	WorkflowGitHubFlow = "github_flow"

	// WorkflowGitFlow is the full git-flow model with develop/main split.
	WorkflowGitFlow = "git_flow"

	// WorkflowGitLabFlow is the environment-based model.
	WorkflowGitLabFlow = "gitlab_flow"
)

// Default thresholds for the repository health analyzer.
const (
	// DefaultStaleBranchDays is the number of days without commits after
	// which a branch is reported as stale.
	DefaultStaleBranchDays = 30

	// DefaultLargeFileThresholdMB is the tracked object size above which a
	// large_object finding is reported.
	DefaultLargeFileThresholdMB = 10
)

// Default retention for backup records.
const (
	// DefaultRetentionDays is how long a backup record remains before it is
	// eligible for pruning.
	DefaultRetentionDays = 90
)

// File and directory permissions for persisted state.
const (
	// DirPerm is the permission mode for state directories.
	DirPerm = 0o750

	// FilePerm is the permission mode for state files.
	FilePerm = 0o600
)
