package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
)

// EvidenceService attaches uploaded files to checkpoints and policies. The
// blob itself lives in S3-compatible storage; this service owns the metadata
// row and the org-scoped key layout.
type EvidenceService struct {
	s3Client *s3.S3
	bucket   string
	db       *gorm.DB
}

// NewEvidenceService builds the S3 client from environment configuration,
// mirroring a Supabase-style S3 endpoint.
func NewEvidenceService(db *gorm.DB) (*EvidenceService, error) {
	region := os.Getenv("STORAGE_REGION")
	endpoint := os.Getenv("STORAGE_S3_ENDPOINT")
	accessKey := os.Getenv("STORAGE_ACCESS_KEY")
	secretKey := os.Getenv("STORAGE_SECRET_KEY")
	bucket := os.Getenv("STORAGE_BUCKET")

	if region == "" || endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("missing required storage configuration environment variables")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &EvidenceService{s3Client: s3.New(sess), bucket: bucket, db: db}, nil
}

// evidenceKey builds the org-scoped object key. The org prefix gives coarse
// tenant isolation at the storage layer without per-object ACLs.
func evidenceKey(orgID, filename string) string {
	return fmt.Sprintf("org-%s-evidence/%s-%s", orgID, uuid.NewString(), filename)
}

// UploadEvidence stores the file then writes the metadata row. The storage
// write goes first; a metadata failure leaves an orphaned object, which is
// logged and acceptable (it simply never surfaces in the binder).
func (s *EvidenceService) UploadEvidence(userID, orgID string, checkpointID, policyID *string, file multipart.File, header *multipart.FileHeader, tags map[string]string) (*model.Evidence, error) {
	if checkpointID == nil && policyID == nil {
		return nil, errs.New(errs.Validation, "evidence must attach to a checkpoint or a policy")
	}
	if checkpointID != nil && policyID != nil {
		return nil, errs.New(errs.Validation, "evidence cannot attach to both a checkpoint and a policy")
	}
	if _, err := requireMember(s.db, userID, orgID, CapUploadEvidence); err != nil {
		return nil, err
	}

	if checkpointID != nil {
		var cp model.Checkpoint
		if err := s.db.Where("id = ? AND org_id = ?", *checkpointID, orgID).First(&cp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.New(errs.NotFound, "checkpoint not found")
			}
			return nil, errs.Wrap(errs.Dependency, err, "failed to load checkpoint")
		}
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "failed to read uploaded file")
	}

	key := evidenceKey(orgID, header.Filename)
	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(header.Header.Get("Content-Type")),
	})
	if err != nil {
		log.Printf("[UploadEvidence] storage write failed for %s: %v", key, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to upload file to storage")
	}
	log.Printf("[UploadEvidence] stored object %s (%d bytes)", key, len(fileBytes))

	tagJSON := datatypes.JSON([]byte("{}"))
	if len(tags) > 0 {
		if b, err := marshalTags(tags); err == nil {
			tagJSON = datatypes.JSON(b)
		}
	}

	ev := model.Evidence{
		OrgID:        orgID,
		CheckpointID: checkpointID,
		PolicyID:     policyID,
		StoragePath:  key,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    int64(len(fileBytes)),
		Tags:         tagJSON,
		UploadedBy:   userID,
	}
	if err := s.db.Create(&ev).Error; err != nil {
		log.Printf("[UploadEvidence] metadata write failed, orphaning object %s: %v", key, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to save evidence metadata")
	}
	return &ev, nil
}

// DeleteEvidence removes the storage object and the metadata row together.
func (s *EvidenceService) DeleteEvidence(userID, orgID, evidenceID string) error {
	if _, err := requireMember(s.db, userID, orgID, CapUploadEvidence); err != nil {
		return err
	}
	var ev model.Evidence
	if err := s.db.Where("id = ? AND org_id = ?", evidenceID, orgID).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.New(errs.NotFound, "evidence not found")
		}
		return errs.Wrap(errs.Dependency, err, "failed to load evidence")
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ev.StoragePath),
	})
	if err != nil {
		log.Printf("[DeleteEvidence] storage delete failed for %s: %v", ev.StoragePath, err)
		return errs.Wrap(errs.Dependency, err, "failed to delete storage object")
	}

	if err := s.db.Delete(&ev).Error; err != nil {
		log.Printf("[DeleteEvidence] metadata delete failed for %s: %v", evidenceID, err)
		return errs.Wrap(errs.Dependency, err, "failed to delete evidence metadata")
	}
	return nil
}

// SignedURL returns a time-limited download link for the evidence file.
func (s *EvidenceService) SignedURL(userID, orgID, evidenceID string, expiry time.Duration) (string, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return "", err
	}
	var ev model.Evidence
	if err := s.db.Where("id = ? AND org_id = ?", evidenceID, orgID).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.New(errs.NotFound, "evidence not found")
		}
		return "", errs.Wrap(errs.Dependency, err, "failed to load evidence")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ev.StoragePath),
	})
	url, err := req.Presign(expiry)
	if err != nil {
		log.Printf("[SignedURL] presign failed for %s: %v", ev.StoragePath, err)
		return "", errs.Wrap(errs.Dependency, err, "failed to sign download URL")
	}
	return url, nil
}

func marshalTags(tags map[string]string) ([]byte, error) {
	return json.Marshal(tags)
}

// ListForCheckpoint returns a checkpoint's evidence rows.
func (s *EvidenceService) ListForCheckpoint(userID, orgID, checkpointID string) ([]model.Evidence, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	var out []model.Evidence
	err := s.db.Where("org_id = ? AND checkpoint_id = ?", orgID, checkpointID).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list evidence")
	}
	return out, nil
}
