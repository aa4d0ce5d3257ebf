package config

type WorkerKeyStruct struct {
	PersistGroupAnswersQueue string
	PersistGroupResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistGroupAnswersQueue: "persist_group_answers_queue",
	PersistGroupResultsQueue: "persist_group_results_queue",
}
