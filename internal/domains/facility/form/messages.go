package form

import (
	"facilitydesk/internal/domains/facility/model"
	"facilitydesk/shared/constant"
)

// Message keys for notices that are not tied to a single field.
const (
	MsgInvalidValue        = "invalid_value"
	MsgListFailed          = "list_failed"
	MsgLoadFacilityFailed  = "load_facility_failed"
	MsgLoadAmenitiesFailed = "load_amenities_failed"
	MsgCreateFailed        = "create_failed"
	MsgUpdateFailed        = "update_failed"
	MsgDeleteFailed        = "delete_failed"
	MsgAmenityNameRequired = "amenity_name_required"
	MsgAmenityExists       = "amenity_exists"
	MsgAmenityCreateFailed = "amenity_create_failed"
	MsgNoImageSelected     = "no_image_selected"
	MsgImageUploadFailed   = "image_upload_failed"
	MsgImageDeleteFailed   = "image_delete_failed"
	MsgFacilityNotFound    = "facility_not_found"
	MsgImageNotFound       = "image_not_found"
)

var messages = map[string]map[string]string{
	constant.LocaleJA: {
		model.FieldName:        "施設名は必須です。",
		model.FieldCapacity:    "最大宿泊人数は1以上20以下の値を入力してください",
		model.FieldAddress:     "住所は必須です。",
		model.FieldNumParking:  "駐車場台数は0以上10以下の値を入力してください",
		model.FieldMapURL:      "有効なURLを入力してください。",
		MsgInvalidValue:        "無効な値です。",
		MsgListFailed:          "データの取得に失敗しました",
		MsgLoadFacilityFailed:  "施設の詳細取得に失敗しました。",
		MsgLoadAmenitiesFailed: "アメニティ一覧の取得に失敗しました。",
		MsgCreateFailed:        "施設の登録に失敗しました。",
		MsgUpdateFailed:        "施設の更新に失敗しました。",
		MsgDeleteFailed:        "施設の削除に失敗しました",
		MsgAmenityNameRequired: "アメニティ名を入力してください。",
		MsgAmenityExists:       "そのアメニティは既に存在します。",
		MsgAmenityCreateFailed: "アメニティの追加に失敗しました。",
		MsgNoImageSelected:     "画像を選択してください。",
		MsgImageUploadFailed:   "画像のアップロードに失敗しました。",
		MsgImageDeleteFailed:   "画像の削除に失敗しました。",
		MsgFacilityNotFound:    "施設が見つかりません。",
		MsgImageNotFound:       "画像が見つかりません。",
	},
	constant.LocaleEN: {
		model.FieldName:        "Facility name is required.",
		model.FieldCapacity:    "Capacity must be between 1 and 20.",
		model.FieldAddress:     "Address is required.",
		model.FieldNumParking:  "Parking spaces must be between 0 and 10.",
		model.FieldMapURL:      "Enter a valid URL.",
		MsgInvalidValue:        "Invalid value.",
		MsgListFailed:          "Failed to load data.",
		MsgLoadFacilityFailed:  "Failed to load the facility.",
		MsgLoadAmenitiesFailed: "Failed to load the amenity list.",
		MsgCreateFailed:        "Failed to create the facility.",
		MsgUpdateFailed:        "Failed to update the facility.",
		MsgDeleteFailed:        "Failed to delete the facility.",
		MsgAmenityNameRequired: "Enter an amenity name.",
		MsgAmenityExists:       "That amenity already exists.",
		MsgAmenityCreateFailed: "Failed to add the amenity.",
		MsgNoImageSelected:     "Select an image.",
		MsgImageUploadFailed:   "Failed to upload the image.",
		MsgImageDeleteFailed:   "Failed to delete the image.",
		MsgFacilityNotFound:    "Facility not found.",
		MsgImageNotFound:       "Image not found.",
	},
}

// Message returns the text of key in locale, falling back to Japanese.
func Message(locale, key string) string {
	table, ok := messages[locale]
	if !ok {
		table = messages[constant.LocaleJA]
	}

	if msg, ok := table[key]; ok {
		return msg
	}

	return messages[constant.LocaleJA][key]
}

// FieldMessage maps a server-reported field to its user-facing text. Fields
// without a dedicated text get the generic invalid-value message.
func FieldMessage(locale, field string) string {
	switch field {
	case model.FieldName, model.FieldCapacity, model.FieldAddress, model.FieldNumParking, model.FieldMapURL:
		return Message(locale, field)
	default:
		return Message(locale, MsgInvalidValue)
	}
}

// LocalizeFieldErrors turns a raw field-error map into one message per field.
func LocalizeFieldErrors(locale string, fieldErrors map[string][]string) map[string]string {
	if len(fieldErrors) == 0 {
		return nil
	}

	localized := make(map[string]string, len(fieldErrors))
	for field := range fieldErrors {
		localized[field] = FieldMessage(locale, field)
	}

	return localized
}
