package repository

import (
	"collsync/internal/db"
	"collsync/internal/model"
	"time"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// SavePass records one pass plus a row per failed file. Successful files
// are only counted, not stored individually, to keep the table small.
func (r *HistoryRepository) SavePass(report *model.PassReport) error {
	status := model.StatusSuccess
	errMsg := ""
	if report.Err != nil {
		status = model.StatusFailed
		errMsg = report.Err.Error()
	}

	record := model.PassRecord{
		Status:     status,
		Uploaded:   report.Uploaded,
		Downloaded: report.Downloaded,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		ErrMsg:     errMsg,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}

	if err := db.DB.Create(&record).Error; err != nil {
		return err
	}

	for _, res := range report.Results {
		if res.Err == nil {
			continue
		}

		if err := r.Save(res); err != nil {
			return err
		}
	}

	return nil
}

func (r *HistoryRepository) Save(result model.SyncResult) error {
	status := model.StatusSuccess
	errMsg := ""
	if result.Err != nil {
		status = model.StatusFailed
		errMsg = result.Err.Error()
	}

	history := model.History{
		Op:         string(result.Op),
		LocalPath:  result.LocalPath,
		RemotePath: result.RemotePath,
		Status:     status,
		ErrMsg:     errMsg,
		SyncedAt:   time.Now(),
	}

	return db.DB.Create(&history).Error
}

type Stats struct {
	Passes  int64 `json:"passes"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.PassRecord{}).Count(&stats.Passes).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.PassRecord{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Passes - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.PassRecord, error) {
	var records []model.PassRecord
	result := db.DB.
		Order("started_at desc").
		Limit(limit).
		Find(&records)

	return records, result.Error
}

func (r *HistoryRepository) GetFailedFiles() ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Where("status = ?", model.StatusFailed).
		Order("synced_at desc").
		Find(&histories)

	return histories, result.Error
}
