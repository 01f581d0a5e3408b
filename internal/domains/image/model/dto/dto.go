package dto

import (
	"io"
	"strconv"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/internal/domains/image/model"
)

// UploadImageRequest is one multipart upload to the images collection.
type UploadImageRequest struct {
	FacilityID  int64
	FileName    string
	ContentType string
	Caption     string
	Body        io.Reader
}

func (r UploadImageRequest) ToMultipart() facilityapi.Multipart {
	fields := map[string]string{
		model.FieldFacility: strconv.FormatInt(r.FacilityID, 10),
	}

	if r.Caption != "" {
		fields[model.FieldCaption] = r.Caption
	}

	return facilityapi.Multipart{
		Fields: fields,
		File: facilityapi.File{
			FieldName:   model.FieldImage,
			FileName:    r.FileName,
			ContentType: r.ContentType,
			Body:        r.Body,
		},
	}
}

type ImageResponse struct {
	ID      int64  `json:"id"`
	URL     string `json:"image"`
	Caption string `json:"caption"`
}

func (r *ImageResponse) FromModel(m model.Image) {
	r.ID = m.ID
	r.URL = m.URL
	r.Caption = m.Caption
}
