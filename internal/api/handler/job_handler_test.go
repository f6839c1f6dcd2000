package handler

import (
	"errors"
	"testing"

	"fair-ats-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildApplicationEntriesWithPresign(t *testing.T) {
	apps := []models.Application{
		{ApplicationID: "a1", ResumeObject: "resumes/a1.pdf"},
		{ApplicationID: "a2"}, // 未归档原始简历
		{ApplicationID: "a3", ResumeObject: "resumes/a3.pdf"},
	}

	entries := buildApplicationEntries(apps, func(objectKey string) (string, error) {
		return "https://minio.local/" + objectKey, nil
	})
	require.Len(t, entries, 3)

	assert.Equal(t, "https://minio.local/resumes/a1.pdf", entries[0].ResumeURL)
	assert.Empty(t, entries[1].ResumeURL)
	assert.Equal(t, "https://minio.local/resumes/a3.pdf", entries[2].ResumeURL)
}

func TestBuildApplicationEntriesWithoutPresign(t *testing.T) {
	apps := []models.Application{
		{ApplicationID: "a1", ResumeObject: "resumes/a1.pdf"},
	}

	// 对象存储不可用时presign为nil, 记录照常返回但不带链接
	entries := buildApplicationEntries(apps, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].ApplicationID)
	assert.Empty(t, entries[0].ResumeURL)
}

func TestBuildApplicationEntriesPresignError(t *testing.T) {
	apps := []models.Application{
		{ApplicationID: "a1", ResumeObject: "resumes/a1.pdf"},
	}

	// 签名失败只影响链接, 投递记录本身仍然返回
	entries := buildApplicationEntries(apps, func(string) (string, error) {
		return "", errors.New("presign unavailable")
	})
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ResumeURL)
}
