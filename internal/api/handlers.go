package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/dating_coach/internal/advice"
)

func (h *handler) initConversation(w http.ResponseWriter, r *http.Request) {
	id := conversationID(r)
	createdAt, err := h.coach.Init(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, initResponse{ConversationID: id, CreatedAt: createdAt})
}

func (h *handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := conversationID(r)
	if err := h.coach.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{ConversationID: id, DeletedAt: time.Now()})
}

func (h *handler) addMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	msg, err := req.toMessage()
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	res, err := h.coach.AddMessage(r.Context(), conversationID(r), msg)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresResponse{Scores: res.Scores, Duplicate: res.Duplicate})
}

func (h *handler) partnerMemory(w http.ResponseWriter, r *http.Request) {
	memory, err := h.coach.PartnerMemory(conversationID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, partnerMemoryResponse{PartnerMemory: memory})
}

func (h *handler) scores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.coach.Scores(conversationID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresResponse{Scores: scores})
}

func (h *handler) recommendAdvice(w http.ResponseWriter, r *http.Request) {
	items, err := h.coach.RecommendAdvice(r.Context(), conversationID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	summaries := make([]advice.Summary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, item.Summary())
	}
	writeJSON(w, http.StatusOK, recommendationResponse{AdviceMetadatas: summaries})
}

func (h *handler) getAdvice(w http.ResponseWriter, r *http.Request) {
	item, content, err := h.coach.GetAdvice(r.Context(), conversationID(r), chi.URLParam(r, "adviceID"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{AdviceID: item.ID, ContentType: content.Type, Advice: content})
}

func (h *handler) finalReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.coach.FinalReport(r.Context(), conversationID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{ReportID: report.ID, FinalReport: report.Text})
}

func (h *handler) archivedReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	text, err := h.coach.ArchivedReport(r.Context(), conversationID(r), reportID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{ReportID: reportID, FinalReport: text})
}
