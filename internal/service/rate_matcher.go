package service

import (
	"fmt"
	"strings"

	"github.com/voyago-next/internal/constants"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"

	"github.com/shopspring/decimal"
)

// 匹配置信度
const (
	MatchConfidenceHigh   = "high"
	MatchConfidenceMedium = "medium"
	MatchConfidenceLow    = "low"
)

// RateMatchResult 费率匹配结果（瞬态值，每次定价重新计算，不落库）
type RateMatchResult struct {
	Matched      bool         `json:"matched"`
	RateRecordID uint         `json:"rate_record_id,omitempty"`
	SupplierCost models.Money `json:"supplier_cost"`
	Confidence   string       `json:"confidence"`
	Reason       string       `json:"reason"`
}

// RateMatcherService 费率匹配服务
type RateMatcherService struct {
	rateRepo  repository.RateRecordRepository
	quoteRepo repository.QuoteRepository
}

// NewRateMatcherService 创建费率匹配服务
func NewRateMatcherService(rateRepo repository.RateRecordRepository, quoteRepo repository.QuoteRepository) *RateMatcherService {
	return &RateMatcherService{rateRepo: rateRepo, quoteRepo: quoteRepo}
}

// Match 将行程项匹配到费率记录并解析供应商成本。
// 未匹配是合法的终态结果，不作为错误返回。
func (s *RateMatcherService) Match(item models.QuoteItem) (*RateMatchResult, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, ErrQuoteInvalid
	}
	records, err := s.rateRepo.ListActiveByKind(item.Kind)
	if err != nil {
		return nil, err
	}

	var candidates []models.RateRecord
	for _, record := range records {
		if !fuzzyNameMatch(record.PrimaryName(), item.Name) {
			continue
		}
		if !record.Overlaps(item.StartDate, item.EndDate) {
			continue
		}
		candidates = append(candidates, record)
	}
	if len(candidates) == 0 {
		return &RateMatchResult{
			Matched:    false,
			Confidence: MatchConfidenceLow,
			Reason:     fmt.Sprintf("没有与 %q 重叠且名称相符的费率记录", item.Name),
		}, nil
	}

	winner := pickBestCandidate(candidates, item.Name)
	cost := resolveSupplierCost(winner, item)

	confidence := MatchConfidenceMedium
	if strings.EqualFold(winner.IdentityString(), strings.TrimSpace(item.Name)) ||
		strings.EqualFold(winner.PrimaryName(), strings.TrimSpace(item.Name)) {
		confidence = MatchConfidenceHigh
	}

	return &RateMatchResult{
		Matched:      true,
		RateRecordID: winner.ID,
		SupplierCost: cost,
		Confidence:   confidence,
		Reason:       fmt.Sprintf("匹配费率记录 #%d (%s)", winner.ID, winner.PrimaryName()),
	}, nil
}

// MatchAndApply 匹配报价单全部行程项并回写供应商成本。
// 行程项的供应商成本只由匹配器和预订派发写入。
func (s *RateMatcherService) MatchAndApply(quote *models.Quote) (map[uint]*RateMatchResult, error) {
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	results := make(map[uint]*RateMatchResult, len(quote.Items))
	for i := range quote.Items {
		item := quote.Items[i]
		result, err := s.Match(item)
		if err != nil {
			return nil, err
		}
		results[item.ID] = result
		if !result.Matched {
			continue
		}
		cost := result.SupplierCost
		if err := s.quoteRepo.UpdateItem(item.ID, map[string]interface{}{"supplier_cost": cost}); err != nil {
			return nil, err
		}
		quote.Items[i].SupplierCost = &cost
	}
	return results, nil
}

// fuzzyNameMatch 大小写不敏感、双向包含的名称匹配
func fuzzyNameMatch(recordName, itemName string) bool {
	a := strings.ToLower(strings.TrimSpace(recordName))
	b := strings.ToLower(strings.TrimSpace(itemName))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// pickBestCandidate 候选排序：名称精确相等 > 供应商来源 > 创建时间新
func pickBestCandidate(candidates []models.RateRecord, itemName string) models.RateRecord {
	best := candidates[0]
	bestScore := candidateScore(best, itemName)
	for _, candidate := range candidates[1:] {
		score := candidateScore(candidate, itemName)
		if score > bestScore {
			best = candidate
			bestScore = score
			continue
		}
		if score == bestScore && candidate.CreatedAt.After(best.CreatedAt) {
			best = candidate
		}
	}
	return best
}

func candidateScore(record models.RateRecord, itemName string) int {
	score := 0
	if strings.EqualFold(record.PrimaryName(), strings.TrimSpace(itemName)) {
		score += 2
	}
	if record.Source == constants.RateSourceProvider {
		score++
	}
	return score
}

// resolveSupplierCost 按类型解析成本：
// 酒店走入住人数档位（存在档位价时），按晚数相乘；
// 活动按人数相乘；接送等其余类型取基础费率。
func resolveSupplierCost(record models.RateRecord, item models.QuoteItem) models.Money {
	switch item.Kind {
	case constants.ItemKindHotel:
		rate := record.BaseRate
		if record.RatePerPerson {
			if tier := occupancyTierRate(record, item.Occupancy); tier != nil {
				rate = *tier
			}
		}
		nights := decimal.NewFromInt(int64(item.Nights()))
		return models.NewMoneyFromDecimal(rate.Decimal.Mul(nights))
	case constants.ItemKindActivity:
		participants := item.Participants
		if participants < 1 {
			participants = 1
		}
		return models.NewMoneyFromDecimal(record.BaseRate.Decimal.Mul(decimal.NewFromInt(int64(participants))))
	default:
		return record.BaseRate
	}
}

func occupancyTierRate(record models.RateRecord, occupancy int) *models.Money {
	switch {
	case occupancy == 1:
		return record.SingleRate
	case occupancy == 2:
		return record.DoubleRate
	case occupancy == 3:
		return record.TripleRate
	case occupancy >= 4:
		return record.QuadRate
	}
	return nil
}
