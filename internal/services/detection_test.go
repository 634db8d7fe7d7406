package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamarr/teamarr/internal/models"
)

func detectionFixture(t *testing.T, rows ...models.DetectionKeyword) *DetectionService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DetectionKeyword{}))
	for i := range rows {
		rows[i].Enabled = true
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	return NewDetectionService(db)
}

func TestCheckException(t *testing.T) {
	svc := detectionFixture(t,
		models.DetectionKeyword{Category: CategoryExceptions, Keyword: "Spanish", TargetValue: ExceptionSplit, Priority: 10},
		models.DetectionKeyword{Category: CategoryExceptions, Keyword: "Backup Feed", TargetValue: ExceptionIgnore, Priority: 5},
	)

	keyword, behavior := svc.CheckException("NHL 01: Red Wings vs Blackhawks (SPANISH)")
	assert.Equal(t, "spanish", keyword)
	assert.Equal(t, ExceptionSplit, behavior)

	keyword, behavior = svc.CheckException("NHL 02: Red Wings vs Blackhawks Backup Feed")
	assert.Equal(t, "backup feed", keyword)
	assert.Equal(t, ExceptionIgnore, behavior)

	keyword, behavior = svc.CheckException("NHL 03: Red Wings vs Blackhawks")
	assert.Empty(t, keyword)
	assert.Empty(t, behavior)
}

func TestCheckExceptionDefaultsToSplit(t *testing.T) {
	svc := detectionFixture(t,
		models.DetectionKeyword{Category: CategoryExceptions, Keyword: "French"},
	)
	keyword, behavior := svc.CheckException("NBA: Lakers @ Celtics (French)")
	assert.Equal(t, "french", keyword)
	assert.Equal(t, ExceptionSplit, behavior)
}

func TestCheckExceptionPriorityOrder(t *testing.T) {
	svc := detectionFixture(t,
		models.DetectionKeyword{Category: CategoryExceptions, Keyword: "Feed", TargetValue: ExceptionIgnore, Priority: 1},
		models.DetectionKeyword{Category: CategoryExceptions, Keyword: "Spanish Feed", TargetValue: ExceptionSplit, Priority: 20},
	)
	keyword, behavior := svc.CheckException("MLB: Tigers vs Guardians Spanish Feed")
	assert.Equal(t, "spanish feed", keyword)
	assert.Equal(t, ExceptionSplit, behavior)
}
