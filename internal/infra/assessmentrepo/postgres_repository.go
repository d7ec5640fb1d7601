package assessmentrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/mens-health/internal/domain/healthfn"
	"github.com/yanqian/mens-health/internal/domain/scoring"
)

// PostgresRepository stores assessment documents in the health_assessments table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts one document. Intake sections are kept as JSONB.
func (r *PostgresRepository) Save(ctx context.Context, doc healthfn.AssessmentDocument) error {
	recommendations, err := json.Marshal(doc.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	intake, err := json.Marshal(intakeColumns{
		PersonalInfo:  doc.PersonalInfo,
		HealthHistory: doc.HealthHistory,
		Lifestyle:     doc.Lifestyle,
		Goals:         doc.Goals,
	})
	if err != nil {
		return fmt.Errorf("encode intake: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO health_assessments (id, user_id, type, score, status, recommendations, intake, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, doc.ID, doc.UserID, doc.Type, doc.Score, string(doc.Status), recommendations, intake, doc.CreatedAt)
	return err
}

// ListByUser returns the user's documents, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]healthfn.AssessmentDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, score, status, recommendations, intake, created_at
		FROM health_assessments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]healthfn.AssessmentDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type intakeColumns struct {
	PersonalInfo  *scoring.PersonalInfo  `json:"personalInfo,omitempty"`
	HealthHistory *scoring.HealthHistory `json:"healthHistory,omitempty"`
	Lifestyle     *scoring.Lifestyle     `json:"lifestyle,omitempty"`
	Goals         json.RawMessage        `json:"goals,omitempty"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (healthfn.AssessmentDocument, error) {
	var (
		doc             healthfn.AssessmentDocument
		status          string
		recommendations []byte
		intake          []byte
	)
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Type, &doc.Score, &status, &recommendations, &intake, &doc.CreatedAt); err != nil {
		return healthfn.AssessmentDocument{}, err
	}
	doc.Status = scoring.Status(status)
	if len(recommendations) > 0 {
		if err := json.Unmarshal(recommendations, &doc.Recommendations); err != nil {
			return healthfn.AssessmentDocument{}, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	if len(intake) > 0 {
		var cols intakeColumns
		if err := json.Unmarshal(intake, &cols); err != nil {
			return healthfn.AssessmentDocument{}, fmt.Errorf("decode intake: %w", err)
		}
		doc.PersonalInfo = cols.PersonalInfo
		doc.HealthHistory = cols.HealthHistory
		doc.Lifestyle = cols.Lifestyle
		doc.Goals = cols.Goals
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	return doc, nil
}

var _ healthfn.Repository = (*PostgresRepository)(nil)
