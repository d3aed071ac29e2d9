package http

import (
	"net/http"
	"strings"
)

type messageKey string

const (
	msgOK                 messageKey = "ok"
	msgSentForSignatures  messageKey = "sent_for_signatures"
	msgSigned             messageKey = "signed"
	msgActivated          messageKey = "activated"
	msgRejected           messageKey = "rejected"
	msgAlreadySigned      messageKey = "already_signed"
	msgDocumentRejected   messageKey = "document_rejected"
	msgContractActive     messageKey = "contract_active"
	msgInvalidTransition  messageKey = "invalid_transition"
	msgOutOfOrder         messageKey = "out_of_order"
	msgInvalidInput       messageKey = "invalid_input"
	msgUnknownAction      messageKey = "unknown_action"
	msgNotFound           messageKey = "not_found"
	msgForbidden          messageKey = "forbidden"
	msgUnauthorized       messageKey = "unauthorized"
	msgMethodNotAllowed   messageKey = "method_not_allowed"
	msgConflict           messageKey = "conflict"
	msgSequenceDown       messageKey = "sequence_unavailable"
	msgInternal           messageKey = "internal"
	msgInvoiceIssued      messageKey = "invoice_issued"
	msgTemplateUnresolved messageKey = "template_unresolved"
)

var messages = map[string]map[messageKey]string{
	"en": {
		msgOK:                 "ok",
		msgSentForSignatures:  "contract sent for signatures",
		msgSigned:             "signature recorded",
		msgActivated:          "all signatures collected, contract is active",
		msgRejected:           "contract rejected",
		msgAlreadySigned:      "already signed",
		msgDocumentRejected:   "document rejected",
		msgContractActive:     "contract is already active",
		msgInvalidTransition:  "this action is not allowed in the current state",
		msgOutOfOrder:         "admin approval requires tenant and owner signatures first",
		msgInvalidInput:       "invalid request",
		msgUnknownAction:      "unknown action",
		msgNotFound:           "not found",
		msgForbidden:          "you are not allowed to do this",
		msgUnauthorized:       "authentication required",
		msgMethodNotAllowed:   "method not allowed",
		msgConflict:           "the record was changed by another request, try again",
		msgSequenceDown:       "serial numbers are temporarily unavailable",
		msgInternal:           "something went wrong",
		msgInvoiceIssued:      "invoice issued",
		msgTemplateUnresolved: "no contract template is configured",
	},
	"ar": {
		msgOK:                 "تم",
		msgSentForSignatures:  "تم إرسال العقد للتوقيع",
		msgSigned:             "تم تسجيل التوقيع",
		msgActivated:          "اكتملت التوقيعات والعقد ساري",
		msgRejected:           "تم رفض العقد",
		msgAlreadySigned:      "تم التوقيع مسبقاً",
		msgDocumentRejected:   "المستند مرفوض",
		msgContractActive:     "العقد ساري بالفعل",
		msgInvalidTransition:  "هذا الإجراء غير مسموح في الحالة الحالية",
		msgOutOfOrder:         "موافقة المشرف تتطلب توقيع المستأجر والمالك أولاً",
		msgInvalidInput:       "طلب غير صالح",
		msgUnknownAction:      "إجراء غير معروف",
		msgNotFound:           "غير موجود",
		msgForbidden:          "غير مسموح لك بهذا الإجراء",
		msgUnauthorized:       "يلزم تسجيل الدخول",
		msgMethodNotAllowed:   "الطريقة غير مسموحة",
		msgConflict:           "تم تعديل السجل من طلب آخر، حاول مرة أخرى",
		msgSequenceDown:       "الأرقام التسلسلية غير متاحة مؤقتاً",
		msgInternal:           "حدث خطأ ما",
		msgInvoiceIssued:      "تم إصدار الفاتورة",
		msgTemplateUnresolved: "لا يوجد قالب عقد مهيأ",
	},
}

// language picks "ar" when Arabic is the caller's first preference.
func language(r *http.Request) string {
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	first := strings.ToLower(strings.SplitN(accept, ",", 2)[0])
	if strings.HasPrefix(first, "ar") {
		return "ar"
	}
	return "en"
}

func message(r *http.Request, key messageKey) string {
	if m, ok := messages[language(r)][key]; ok {
		return m
	}
	return messages["en"][key]
}
