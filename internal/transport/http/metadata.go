package http

import "strings"

// 航班元数据的内置查询表:训练集里出现频率最高的机场与承运人。
// 只服务展示层,编码本身走各工件自带的编码器。

// AirportInfo 机场概要。
type AirportInfo struct {
	Code string `json:"code"`
	City string `json:"city"`
}

// CarrierInfo 承运人概要。
type CarrierInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var airportTable = map[string]string{
	"ATL": "Atlanta",
	"ORD": "Chicago O'Hare",
	"DFW": "Dallas/Fort Worth",
	"LAX": "Los Angeles",
	"PHX": "Phoenix",
	"DEN": "Denver",
	"IAH": "Houston",
	"LAS": "Las Vegas",
	"DTW": "Detroit",
	"SLC": "Salt Lake City",
	"MSP": "Minneapolis",
	"EWR": "Newark",
	"SFO": "San Francisco",
	"CLT": "Charlotte",
	"JFK": "New York JFK",
	"LGA": "New York LaGuardia",
	"BOS": "Boston",
	"SEA": "Seattle",
	"MCO": "Orlando",
	"PHL": "Philadelphia",
	"MIA": "Miami",
	"BWI": "Baltimore",
	"MDW": "Chicago Midway",
	"TPA": "Tampa",
	"SAN": "San Diego",
}

var carrierTable = map[string]string{
	"WN": "Southwest Airlines",
	"AA": "American Airlines",
	"MQ": "American Eagle",
	"UA": "United Airlines",
	"OO": "SkyWest",
	"DL": "Delta Air Lines",
	"XE": "ExpressJet",
	"CO": "Continental Airlines",
	"US": "US Airways",
	"EV": "Atlantic Southeast",
	"NW": "Northwest Airlines",
	"FL": "AirTran Airways",
	"YV": "Mesa Airlines",
	"B6": "JetBlue Airways",
	"OH": "Comair",
	"9E": "Pinnacle Airlines",
	"AS": "Alaska Airlines",
	"F9": "Frontier Airlines",
	"HA": "Hawaiian Airlines",
	"AQ": "Aloha Airlines",
}

// lookupAirport 查机场,未收录返回 nil。
func lookupAirport(code string) *AirportInfo {
	code = strings.ToUpper(strings.TrimSpace(code))
	if city, ok := airportTable[code]; ok {
		return &AirportInfo{Code: code, City: city}
	}
	return nil
}

// lookupCarrier 查承运人,未收录返回 nil。
func lookupCarrier(code string) *CarrierInfo {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := carrierTable[code]; ok {
		return &CarrierInfo{Code: code, Name: name}
	}
	return nil
}
