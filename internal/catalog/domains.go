package catalog

import "github.com/peterfiasco/easylawBe-sub000/internal/domain"

// standardTransitions is shared by domains that go through an external review step.
var standardTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusSubmitted:      {domain.StatusRequiresAction, domain.StatusProcessing, domain.StatusUnderReview, domain.StatusCancelled},
	domain.StatusRequiresAction: {domain.StatusSubmitted, domain.StatusProcessing, domain.StatusUnderReview, domain.StatusCancelled},
	domain.StatusProcessing:     {domain.StatusRequiresAction, domain.StatusUnderReview, domain.StatusCompleted},
	domain.StatusUnderReview:    {domain.StatusRequiresAction, domain.StatusProcessing, domain.StatusCompleted},
	domain.StatusCompleted:      {},
	domain.StatusCancelled:      {},
}

// Investigations run in processing straight to completion.
var investigationTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusSubmitted:      {domain.StatusRequiresAction, domain.StatusProcessing, domain.StatusCancelled},
	domain.StatusRequiresAction: {domain.StatusSubmitted, domain.StatusProcessing, domain.StatusCancelled},
	domain.StatusProcessing:     {domain.StatusRequiresAction, domain.StatusCompleted},
	domain.StatusCompleted:      {},
	domain.StatusCancelled:      {},
}

func tiers(standard, express, urgent int) map[domain.Priority]int {
	return map[domain.Priority]int{
		domain.PriorityStandard: standard,
		domain.PriorityExpress:  express,
		domain.PriorityUrgent:   urgent,
	}
}

var businessRegistration = Descriptor{
	ServiceType:  domain.ServiceTypeBusinessRegistration,
	Prefix:       "BR",
	SubtypeField: "business_type",
	RequiredFields: map[string]string{
		"business_name":    "required,max=200",
		"business_type":    "required",
		"business_address": "required,max=500",
	},
	BasePrices: map[string]domain.Amount{
		"business_name":         domain.NGN(10000),
		"incorporation":         domain.NGN(25000),
		"partnership":           domain.NGN(20000),
		"incorporated_trustees": domain.NGN(50000),
	},
	BaseDurations: map[string]string{
		"business_name":         "5-7 business days",
		"incorporation":         "14-21 business days",
		"partnership":           "10-14 business days",
		"incorporated_trustees": "30-45 business days",
	},
	SLADays: map[string]map[domain.Priority]int{
		"business_name":         tiers(7, 5, 3),
		"incorporation":         tiers(21, 14, 7),
		"partnership":           tiers(14, 10, 5),
		"incorporated_trustees": tiers(45, 30, 21),
	},
	DefaultSLADays: 21,
	Transitions:    standardTransitions,
}

var dueDiligence = Descriptor{
	ServiceType:  domain.ServiceTypeDueDiligence,
	Prefix:       "DD",
	SubtypeField: "investigation_type",
	RequiredFields: map[string]string{
		"investigation_type": "required",
		"subject_name":       "required,max=200",
		"scope":              "required",
		"contact_email":      "required,email",
	},
	BasePrices: map[string]domain.Amount{
		"individual":    domain.NGN(15000),
		"property":      domain.NGN(25000),
		"corporate":     domain.NGN(35000),
		"comprehensive": domain.NGN(75000),
	},
	BaseDurations: map[string]string{
		"individual":    "3-5 business days",
		"property":      "5-7 business days",
		"corporate":     "7-10 business days",
		"comprehensive": "14-21 business days",
	},
	// Investigations take their SLA from the quoted duration text.
	SLADays:        map[string]map[domain.Priority]int{},
	DefaultSLADays: 7,
	ProcessingFee:  domain.NGN(5000),
	Transitions:    investigationTransitions,
}

var ipProtection = Descriptor{
	ServiceType:  domain.ServiceTypeIPProtection,
	Prefix:       "IP",
	SubtypeField: "protection_type",
	RequiredFields: map[string]string{
		"protection_type":     "required",
		"application_details": "required",
		"applicant_info":      "required",
	},
	BasePrices: map[string]domain.Amount{
		"copyright":         domain.NGN(30000),
		"trademark":         domain.NGN(50000),
		"industrial_design": domain.NGN(80000),
		"patent":            domain.NGN(150000),
	},
	BaseDurations: map[string]string{
		"copyright":         "30 days",
		"trademark":         "90 days",
		"industrial_design": "120 days",
		"patent":            "180 days",
	},
	SLADays: map[string]map[domain.Priority]int{
		"copyright":         tiers(30, 21, 14),
		"trademark":         tiers(90, 60, 45),
		"industrial_design": tiers(120, 90, 60),
		"patent":            tiers(180, 120, 90),
	},
	DefaultSLADays: 90,
	Transitions:    standardTransitions,
}

var businessService = Descriptor{
	ServiceType:  domain.ServiceTypeBusinessService,
	Prefix:       "BS",
	SubtypeField: "service_category",
	RequiredFields: map[string]string{
		"service_category": "required",
		"description":      "required,max=2000",
	},
	BasePrices: map[string]domain.Amount{
		"annual_returns":    domain.NGN(15000),
		"legal_advisory":    domain.NGN(20000),
		"contract_drafting": domain.NGN(30000),
		"compliance_audit":  domain.NGN(60000),
	},
	BaseDurations: map[string]string{
		"annual_returns":    "5-7 business days",
		"legal_advisory":    "2-3 business days",
		"contract_drafting": "5-10 business days",
		"compliance_audit":  "14-21 business days",
	},
	SLADays: map[string]map[domain.Priority]int{
		"annual_returns":    tiers(7, 5, 3),
		"legal_advisory":    tiers(3, 2, 1),
		"contract_drafting": tiers(10, 7, 4),
		"compliance_audit":  tiers(21, 14, 10),
	},
	DefaultSLADays: 14,
	Transitions:    standardTransitions,
}
