package service

import (
	"time"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"
)

// BookingTaskService 人工预订任务服务
type BookingTaskService struct {
	taskRepo  repository.BookingTaskRepository
	quoteRepo repository.QuoteRepository
}

// NewBookingTaskService 创建人工预订任务服务
func NewBookingTaskService(taskRepo repository.BookingTaskRepository, quoteRepo repository.QuoteRepository) *BookingTaskService {
	return &BookingTaskService{taskRepo: taskRepo, quoteRepo: quoteRepo}
}

// List 分页查询任务
func (s *BookingTaskService) List(filter repository.BookingTaskListFilter) ([]models.BookingTask, int64, error) {
	return s.taskRepo.List(filter)
}

// ListByQuote 查询报价单下的任务
func (s *BookingTaskService) ListByQuote(quoteID uint) ([]models.BookingTask, error) {
	return s.taskRepo.ListByQuote(quoteID)
}

// Start 领取任务（pending -> in_progress）
func (s *BookingTaskService) Start(id uint) (*models.BookingTask, error) {
	task, err := s.getTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != constants.BookingTaskStatusPending {
		return nil, ErrTaskStateInvalid
	}
	if err := s.taskRepo.UpdateStatus(id, constants.BookingTaskStatusInProgress, nil); err != nil {
		return nil, err
	}
	return s.getTask(id)
}

// Complete 完成任务。upload_confirmation 任务必须携带确认号，
// 完成时把确认号回写到行程项。
func (s *BookingTaskService) Complete(id uint, confirmationNumber string) (*models.BookingTask, error) {
	task, err := s.getTask(id)
	if err != nil {
		return nil, err
	}
	switch task.Status {
	case constants.BookingTaskStatusPending, constants.BookingTaskStatusInProgress:
	default:
		return nil, ErrTaskStateInvalid
	}
	if task.Kind == constants.BookingTaskKindUploadConfirmation {
		if confirmationNumber == "" {
			return nil, ErrTaskConfirmationMissing
		}
		if err := s.quoteRepo.UpdateItem(task.QuoteItemID,
			map[string]interface{}{"confirmation_number": confirmationNumber}); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	if err := s.taskRepo.UpdateStatus(id, constants.BookingTaskStatusCompleted,
		map[string]interface{}{"completed_at": now}); err != nil {
		return nil, err
	}
	logger.Infow("booking_task_completed", "task_id", id, "kind", task.Kind,
		"quote_item_id", task.QuoteItemID)
	return s.getTask(id)
}

// Cancel 取消任务（任意未完成状态可取消）
func (s *BookingTaskService) Cancel(id uint) (*models.BookingTask, error) {
	task, err := s.getTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status == constants.BookingTaskStatusCompleted {
		return nil, ErrTaskStateInvalid
	}
	if err := s.taskRepo.UpdateStatus(id, constants.BookingTaskStatusCancelled, nil); err != nil {
		return nil, err
	}
	return s.getTask(id)
}

func (s *BookingTaskService) getTask(id uint) (*models.BookingTask, error) {
	task, err := s.taskRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}
