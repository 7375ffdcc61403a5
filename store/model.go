package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/openquery/dispatcher/job"
)

type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	ID     uuid.UUID `bun:"id,pk,type:uuid"`
	UserID uuid.UUID `bun:"user_id,type:uuid,notnull"`

	DBDialect  string `bun:"db_dialect"`
	DBUsername string `bun:"db_username"`
	DBPassword string `bun:"db_password"`
	DBTNS      string `bun:"db_tns"`
	QueryText  string `bun:"query_text,notnull"`

	ExportType     string `bun:"export_type,notnull"`
	ExportLocation string `bun:"export_location"`
	ExportFilename string `bun:"export_filename"`

	SSHTarget string `bun:"ssh_target"`

	Status         job.Status     `bun:"status,notnull,default:1"`
	ErrorMessage   string         `bun:"error_message"`
	ResultMetadata map[string]any `bun:"result_metadata,type:jsonb"`

	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`

	LockedUntil *time.Time `bun:"locked_until,nullzero"`
	Generation  string     `bun:"generation"`
}

func (m *jobModel) toJob() *job.Job {
	return &job.Job{
		ID:     m.ID,
		UserID: m.UserID,
		DBCredentials: job.Credentials{
			Dialect:  m.DBDialect,
			Username: m.DBUsername,
			Password: m.DBPassword,
			TNS:      m.DBTNS,
		},
		QueryText:      m.QueryText,
		ExportType:     job.ExportType(m.ExportType),
		ExportLocation: m.ExportLocation,
		ExportFilename: m.ExportFilename,
		SSHTarget:      m.SSHTarget,
		Status:         m.Status,
		ErrorMessage:   m.ErrorMessage,
		ResultMetadata: job.ResultMetadata(m.ResultMetadata),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		LockedUntil:    m.LockedUntil,
		Generation:     m.Generation,
	}
}

func fromSpec(spec job.Spec) *jobModel {
	now := time.Now()
	exportType := spec.ExportType
	if exportType == "" {
		exportType = job.DefaultExportType
	}
	return &jobModel{
		ID:             uuid.New(),
		UserID:         spec.UserID,
		DBDialect:      spec.DBCredentials.Dialect,
		DBUsername:     spec.DBCredentials.Username,
		DBPassword:     spec.DBCredentials.Password,
		DBTNS:          spec.DBCredentials.TNS,
		QueryText:      spec.QueryText,
		ExportType:     string(exportType),
		ExportLocation: spec.ExportLocation,
		ExportFilename: spec.ExportFilename,
		SSHTarget:      spec.SSHTarget,
		Status:         job.Pending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type userSettingsModel struct {
	bun.BaseModel `bun:"table:user_settings"`

	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`

	ExportLocation     string `bun:"export_location"`
	ExportType         string `bun:"export_type"`
	MaxParallelQueries int    `bun:"max_parallel_queries,notnull,default:1"`

	SSHHostname      string `bun:"ssh_hostname"`
	SSHPort          int    `bun:"ssh_port"`
	SSHUsername      string `bun:"ssh_username"`
	SSHPassword      string `bun:"ssh_password"`
	SSHKey           string `bun:"ssh_key"`
	SSHKeyPassphrase string `bun:"ssh_key_passphrase"`
}

func (m *userSettingsModel) toSettings() *job.UserSettings {
	return &job.UserSettings{
		UserID:             m.UserID,
		ExportLocation:     m.ExportLocation,
		ExportType:         job.ExportType(m.ExportType),
		MaxParallelQueries: m.MaxParallelQueries,
		SSHHostname:        m.SSHHostname,
		SSHPort:            m.SSHPort,
		SSHUsername:        m.SSHUsername,
		SSHPassword:        m.SSHPassword,
		SSHKey:             m.SSHKey,
		SSHKeyPassphrase:   m.SSHKeyPassphrase,
	}
}
