package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenMemory(t *testing.T) {
	gdb, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	type row struct {
		ID   uint
		Name string
	}
	require.NoError(t, gdb.AutoMigrate(&row{}))
	require.NoError(t, gdb.Create(&row{Name: "x"}).Error)

	var count int64
	require.NoError(t, gdb.Model(&row{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DriverPostgres, "")
	require.Error(t, err)
}

func TestUniqueViolationIsTranslated(t *testing.T) {
	gdb, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	type tag struct {
		ID   uint
		Name string `gorm:"uniqueIndex"`
	}
	require.NoError(t, gdb.AutoMigrate(&tag{}))
	require.NoError(t, gdb.Create(&tag{Name: "x"}).Error)

	err = gdb.Create(&tag{Name: "x"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
