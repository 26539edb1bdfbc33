package adapter

import (
	"fmt"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/api"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobmodel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
		Collection:          ToCollectionResult(job.JobPayload),
	}

	return api.JobResponse{
		Id:        job.Id,
		ClientId:  job.ClientId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(payload jobmodel.JobPayload) *api.RAGResponse {
	if payload.Answer == "" && len(payload.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question:   payload.Question,
		Answer:     payload.Answer,
		Sources:    toAPICitations(payload.Sources),
		NumSources: payload.NumSources,
	}
}

func ToCollectionResult(payload jobmodel.JobPayload) *api.CollectionResult {
	if payload.ArticlesCollected == 0 && payload.TrialsCollected == 0 && payload.ChunksIndexed == 0 {
		return nil
	}
	return &api.CollectionResult{
		ArticlesCollected: payload.ArticlesCollected,
		TrialsCollected:   payload.TrialsCollected,
		ChunksIndexed:     payload.ChunksIndexed,
	}
}

func toAPICitations(citations []jobmodel.Citation) []api.Citation {
	if len(citations) == 0 {
		return nil
	}
	out := make([]api.Citation, 0, len(citations))
	for _, c := range citations {
		out = append(out, api.Citation{
			Title:     c.Title,
			URL:       c.URL,
			Source:    c.Source,
			Relevance: c.Relevance,
		})
	}
	return out
}

func BadRequest(id string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		ClientId:  "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}
